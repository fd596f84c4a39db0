//go:build !efwsdk
// +build !efwsdk

package efw

import "errors"

// ErrNoSDK is returned by NewSDKChannel in builds without the efwsdk tag
var ErrNoSDK = errors.New("efw: built without EFW SDK support, rebuild with -tags efwsdk")

// NewSDKChannel returns an error in builds without the efwsdk tag.  Install
// the ZWO EFW SDK and build with -tags efwsdk to talk to real hardware.
func NewSDKChannel() (Channel, error) {
	return nil, ErrNoSDK
}
