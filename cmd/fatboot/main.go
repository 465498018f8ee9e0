package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

var (
	defaultLogFormatter = &log.TextFormatter{}

	// osFs is used for all files given on the command line.
	osFs = afero.NewOsFs()
)

// infoFormatter prints Info events as plain lines.
type infoFormatter struct{}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

func usage() {
	name := filepath.Base(os.Args[0])
	fmt.Printf("USAGE: %s [options] COMMAND\n\n", name)
	fmt.Printf("Commands:\n")
	fmt.Printf("  ls        List a directory of a FAT image\n")
	fmt.Printf("  cat       Print a file of a FAT image\n")
	fmt.Printf("  load      Search disk images for the boot payload like the boot loader does\n")
	fmt.Printf("  pack      Compress a payload into the size prefixed LZ4 format\n")
	fmt.Printf("  unpack    Decompress a packed payload\n")
	fmt.Printf("  help      Print this message\n")
	fmt.Printf("\n")
	fmt.Printf("Run '%s COMMAND --help' for more information on the command\n", name)
	fmt.Printf("\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.CommandLine.SetInterspersed(false)
	flagQuiet := flag.BoolP("quiet", "q", false, "Quiet execution")
	flagVerbose := flag.BoolP("verbose", "v", false, "Verbose execution")

	log.SetFormatter(new(infoFormatter))
	log.SetLevel(log.InfoLevel)
	flag.Parse()
	if *flagQuiet && *flagVerbose {
		fmt.Printf("Can't set quiet and verbose flag at the same time\n")
		os.Exit(1)
	}
	if *flagQuiet {
		log.SetLevel(log.ErrorLevel)
	}
	if *flagVerbose {
		log.SetFormatter(defaultLogFormatter)
		log.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Printf("Please specify a command.\n\n")
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "ls":
		err = ls(args[1:])
	case "cat":
		err = cat(args[1:])
	case "load":
		err = load(args[1:])
	case "pack":
		err = pack(args[1:])
	case "unpack":
		err = unpack(args[1:])
	case "help":
		usage()
	default:
		fmt.Printf("%q is not valid command.\n\n", args[0])
		usage()
		os.Exit(1)
	}

	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

// newFlagSet creates the flags of a command, args is the description of its arguments.
func newFlagSet(command, args string) *flag.FlagSet {
	flags := flag.NewFlagSet(command, flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Printf("USAGE: %s %s [options] %s\n\n", filepath.Base(os.Args[0]), command, args)
		fmt.Printf("Options:\n")
		flags.PrintDefaults()
	}
	return flags
}
