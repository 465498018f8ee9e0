package main

import (
	"fmt"
	"io"

	"github.com/aligator/fatboot"
	"github.com/aligator/fatboot/loader"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

func load(args []string) error {
	flags := newFlagSet("load", "IMAGE...")
	configFile := flags.StringP("config", "c", "", "YAML loader configuration")
	paths := flags.StringSlice("path", nil, "Candidate paths, overriding the configuration")
	output := flags.StringP("output", "o", "", "Write the loaded payload to this file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return flag.ErrHelp
	}

	cfg := loader.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = loader.LoadConfig(osFs, *configFile)
		if err != nil {
			return err
		}
	}
	if len(*paths) > 0 {
		cfg.Paths = *paths
	}

	// The images are the devices of the loader. Devices listed in the configuration
	// which have no image are reported as unreadable and skipped.
	images := make([]io.ReaderAt, flags.NArg())
	for i, name := range flags.Args() {
		file, err := osFs.Open(name)
		if err != nil {
			return err
		}
		defer file.Close()
		images[i] = file
	}
	if *configFile == "" {
		cfg.Devices = make([]uint32, len(images))
		for i := range cfg.Devices {
			cfg.Devices[i] = uint32(i)
		}
	}

	payload, err := loader.New(cfg, fatboot.NewImageDevice(images...), nil, log.StandardLogger()).Load()
	if err != nil {
		return err
	}

	fmt.Printf("%x  %s:%s\n", payload.Digest, payload.Source, payload.Path)
	if *output != "" {
		return afero.WriteFile(osFs, *output, payload.Data, 0644)
	}
	return nil
}
