package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/osastro/efw-server/efw"
	"github.com/osastro/efw-server/generichttp"
	"github.com/osastro/efw-server/generichttp/wheel"
	"github.com/osastro/efw-server/server/middleware/locker"
)

// WheelSetup maps one attached filter wheel to one URL endpoint
type WheelSetup struct {
	// Endpoint is the path the wheel's routes are served under,
	// ex. "omc/efw" produces routes of /omc/efw/slot, etc.
	Endpoint string `yaml:"Endpoint"`

	// ID is the wheel id, or -1 for the next unclaimed wheel in
	// enumeration order
	ID int `yaml:"ID"`
}

// Config holds the initialization parameters for the server.  It is
// populated from the yaml config file.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Mock swaps the vendor SDK for a simulated wheel
	Mock bool `yaml:"Mock"`

	// Wheels is the list of wheels to serve
	Wheels []WheelSetup `yaml:"Wheels"`
}

// enumerate scans for wheels, retrying with an exponential backoff.  Wheels
// enumerate a beat after the USB bus comes up, so a daemon started at boot
// would otherwise race the hardware and lose.
func enumerate(ch efw.Channel) ([]*efw.Wheel, error) {
	var wheels []*efw.Wheel
	op := func() error {
		var err error
		wheels, err = efw.Enumerate(ch)
		if err != nil {
			return err
		}
		if len(wheels) == 0 {
			return errors.New("no filter wheels connected")
		}
		return nil
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     100 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      10 * time.Second,
		Clock:               backoff.SystemClock})
	return wheels, err
}

// claim resolves a WheelSetup to a concrete wheel.  ID -1 takes the next
// unclaimed wheel in enumeration order.
func claim(setup WheelSetup, wheels []*efw.Wheel, claimed map[int]bool) (*efw.Wheel, error) {
	for _, w := range wheels {
		if claimed[w.ID()] {
			continue
		}
		if setup.ID == -1 || setup.ID == w.ID() {
			claimed[w.ID()] = true
			return w, nil
		}
	}
	return nil, fmt.Errorf("no unclaimed wheel matches id %d", setup.ID)
}

// BuildMux enumerates the hardware, opens each configured wheel, and mounts
// one sub-mux per wheel on a root router.  The returned teardown closes
// every wheel that was opened and must run on every exit path.
func BuildMux(c Config) (chi.Router, func(), error) {
	var ch efw.Channel
	if c.Mock {
		sim := efw.NewSim()
		sim.AddWheel(0, "EFW-7x36-sim", 7)
		ch = sim
	} else {
		var err error
		ch, err = efw.NewSDKChannel()
		if err != nil {
			return nil, nil, err
		}
	}

	wheels, err := enumerate(ch)
	if err != nil {
		return nil, nil, err
	}

	var opened []*efw.Wheel
	teardown := func() {
		for _, w := range opened {
			if err := w.Close(); err != nil {
				log.Println("error closing wheel", w.ID(), err)
			}
		}
	}

	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}
	claimed := map[int]bool{}

	for _, node := range c.Wheels {
		w, err := claim(node, wheels, claimed)
		if err != nil {
			teardown()
			return nil, nil, err
		}
		err = w.Open()
		if err != nil {
			teardown()
			return nil, nil, fmt.Errorf("opening wheel %d: %w", w.ID(), err)
		}
		opened = append(opened, w)

		info, err := w.Info()
		if err != nil {
			teardown()
			return nil, nil, err
		}
		log.Printf("wheel %d: %s, %d slots", info.ID, info.Name, info.Slots)

		httper := wheel.NewHTTPWheel(w)
		lock := locker.New()
		locker.Inject(httper, lock)

		// prepare the URL, "omc/efw" => "/omc/efw/*"
		hndlS := generichttp.SubMuxSanitize(node.Endpoint)
		supergraph[hndlS] = httper.RT().Endpoints()

		r := chi.NewRouter()
		r.Use(lock.Check)
		httper.RT().Bind(r)
		root.Mount(hndlS, r)
	}

	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root, teardown, nil
}
