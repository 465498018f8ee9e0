package main

import (
	"github.com/aligator/fatboot/loader"
	"github.com/aligator/fatboot/lz4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

func pack(args []string) error {
	flags := newFlagSet("pack", "INPUT OUTPUT")
	configFile := flags.StringP("config", "c", "", "YAML loader configuration whose compression_level is the default level")
	level := flags.IntP("level", "l", lz4.DefaultLevel, "Compression level from 1 to 16, overrides the configuration")
	fast := flags.Bool("fast", false, "Use the fast encoder instead of the HC encoder")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return flag.ErrHelp
	}

	if *configFile != "" {
		cfg, err := loader.LoadConfig(osFs, *configFile)
		if err != nil {
			return err
		}
		if !flags.Changed("level") {
			*level = cfg.CompressionLevel
		}
	}

	src, err := afero.ReadFile(osFs, flags.Arg(0))
	if err != nil {
		return err
	}

	var packed []byte
	if *fast {
		packed, err = lz4.PackFast(src)
	} else {
		packed, err = lz4.Pack(src, *level)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"size":   len(src),
		"packed": len(packed),
		"level":  *level,
		"fast":   *fast,
	}).Debug("packed payload")
	return afero.WriteFile(osFs, flags.Arg(1), packed, 0644)
}

func unpack(args []string) error {
	flags := newFlagSet("unpack", "INPUT OUTPUT")
	maxSize := flags.Int("max-size", 0, "Refuse payloads larger than this when unpacked, 0 for no limit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return flag.ErrHelp
	}

	packed, err := afero.ReadFile(osFs, flags.Arg(0))
	if err != nil {
		return err
	}

	data, err := lz4.Unpack(packed, *maxSize)
	if err != nil {
		return err
	}
	return afero.WriteFile(osFs, flags.Arg(1), data, 0644)
}
