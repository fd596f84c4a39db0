package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/gousb"
	"github.com/theckman/yacspin"

	"github.com/osastro/efw-server/efw"
	"github.com/osastro/efw-server/util"
)

// ZWOVID is the ZWO (Suzhou ZWO Co.) USB vendor ID.  All EFW wheels carry it.
const ZWOVID = 0x03c3

func usage() {
	str := `efwctl drives ZWO EFW filter wheels from the command line.
Build with -tags efwsdk and the ZWO EFW SDK installed; detect works without it.

Usage:
	efwctl <command> [args]

Commands:
	detect                      scan USB for ZWO devices, no SDK needed
	list                        enumerate wheels and print their info
	goto <id> <slot> [timeout]  move and wait for settle, timeout in seconds
	calibrate <id>              start a recalibration
	firmware <id>               print the firmware version
	serial <id>                 print the factory serial number`
	fmt.Println(str)
}

// detect scans the USB bus for devices with ZWO's vendor ID.  This goes
// under the SDK, so it is useful for answering "is the wheel even plugged
// in" when enumeration comes up empty.
func detect() {
	ctx := gousb.NewContext()
	defer ctx.Close()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ZWOVID)
	})
	for _, dev := range devs {
		defer dev.Close()
	}
	if err != nil {
		log.Fatal(err)
	}
	if len(devs) == 0 {
		fmt.Println("no ZWO USB devices found")
		return
	}
	for _, dev := range devs {
		product, err := dev.Product()
		if err != nil {
			product = "(unreadable product string)"
		}
		fmt.Printf("bus %03d addr %03d vid %s pid %s %s\n",
			dev.Desc.Bus, dev.Desc.Address, dev.Desc.Vendor, dev.Desc.Product, product)
	}
}

// openWheel enumerates and opens the wheel with the given id.  The caller
// owns the returned close function and must run it on every exit path.
func openWheel(id int) (*efw.Wheel, func()) {
	ch, err := efw.NewSDKChannel()
	if err != nil {
		log.Fatal(err)
	}
	wheels, err := efw.Enumerate(ch)
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range wheels {
		if w.ID() == id {
			err = w.Open()
			if err != nil {
				log.Fatal(err)
			}
			return w, func() {
				if err := w.Close(); err != nil {
					log.Println("error closing wheel:", err)
				}
			}
		}
	}
	log.Fatalf("no wheel with id %d, run efwctl list", id)
	return nil, nil
}

func list() {
	ch, err := efw.NewSDKChannel()
	if err != nil {
		log.Fatal(err)
	}
	wheels, err := efw.Enumerate(ch)
	if err != nil {
		log.Fatal(err)
	}
	if len(wheels) == 0 {
		fmt.Println("no filter wheels connected")
		return
	}
	for _, w := range wheels {
		err = w.Open()
		if err != nil {
			log.Fatal(err)
		}
		info, err := w.Info()
		slot := "?"
		if err == nil {
			s, moving, perr := w.CurrentSlot()
			if perr == nil {
				if moving {
					slot = "moving"
				} else {
					slot = strconv.Itoa(s)
				}
			}
		}
		if cerr := w.Close(); cerr != nil {
			log.Println("error closing wheel:", cerr)
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("id %d  %s  %d slots  at slot %s\n", info.ID, info.Name, info.Slots, slot)
	}
}

func goTo(args []string) {
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("id must be an integer: ", err)
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal("slot must be an integer: ", err)
	}
	timeout := efw.DefaultMoveTimeout
	if len(args) > 2 {
		secs, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			log.Fatal("timeout must be a number of seconds: ", err)
		}
		timeout = util.SecsToDuration(secs)
	}

	w, closer := openWheel(id)
	defer closer()

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[59],
		Suffix:          fmt.Sprintf(" moving to slot %d", slot),
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
		SuffixAutoColon: true,
	})
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()
	start := time.Now()
	err = w.MoveToAndWait(slot, timeout)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	spinner.StopMessage(fmt.Sprintf("settled in %.1fs", util.DurationToSecs(time.Since(start))))
	spinner.Stop()
}

func calibrate(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("id must be an integer: ", err)
	}
	w, closer := openWheel(id)
	defer closer()
	err = w.Calibrate()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("calibration started, the wheel reports moving until it completes")
}

func firmware(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("id must be an integer: ", err)
	}
	w, closer := openWheel(id)
	defer closer()
	fw, err := w.FirmwareVersion()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(fw)
}

func serial(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("id must be an integer: ", err)
	}
	w, closer := openWheel(id)
	defer closer()
	sn, err := w.SerialNumber()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sn)
}

func main() {
	if len(os.Args) == 1 {
		usage()
		return
	}
	switch os.Args[1] {
	case "detect":
		detect()
	case "list":
		list()
	case "goto":
		goTo(os.Args[2:])
	case "calibrate":
		calibrate(os.Args[2:])
	case "firmware":
		firmware(os.Args[2:])
	case "serial":
		serial(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}
