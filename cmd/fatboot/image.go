package main

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aligator/fatboot"
	"github.com/aligator/fatboot/loader"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

// openImage opens the FAT volume of a disk image. partition 0 means the image is the volume,
// otherwise it is the number of the FAT partition in the MBR of the image, starting at 1.
func openImage(name string, partition int) (*fatboot.Fs, io.Closer, error) {
	file, err := osFs.Open(name)
	if err != nil {
		return nil, nil, err
	}

	device := fatboot.NewImageDevice(file)
	if partition <= 0 {
		fs, err := fatboot.New(device, 0)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return fs, file, nil
	}

	partitions := loader.NewPartitionMap(device)
	indices, err := partitions.AddPartitions(0)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if partition > len(indices) {
		file.Close()
		return nil, nil, fmt.Errorf("%s has %d FAT partitions, not %d", name, len(indices), partition)
	}

	index := indices[partition-1]
	log.Debugf("opening %s of %s", partitions.Describe(index), name)
	fs, err := fatboot.New(partitions, index)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return fs, file, nil
}

func ls(args []string) error {
	flags := newFlagSet("ls", "IMAGE [DIR]")
	partition := flags.IntP("partition", "p", 0, "Number of the FAT partition, 0 if the image holds no partition table")
	recursive := flags.BoolP("recursive", "r", false, "List subdirectories too")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 || flags.NArg() > 2 {
		flags.Usage()
		return flag.ErrHelp
	}

	fs, closer, err := openImage(flags.Arg(0), *partition)
	if err != nil {
		return err
	}
	defer closer.Close()

	dir := flags.Arg(1)
	log.Debugf("volume %q with type %v", fs.Label(), fs.FSType())

	show := func(name string, info os.FileInfo) {
		fmt.Printf("%v %10d %s %s\n", info.Mode(), info.Size(), info.ModTime().Format("2006-01-02 15:04:05"), name)
	}

	if *recursive {
		return afero.Walk(fs, dir, func(name string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			show(name, info)
			return nil
		})
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return err
	}
	for _, info := range infos {
		show(path.Join(dir, info.Name()), info)
	}
	return nil
}

func cat(args []string) error {
	flags := newFlagSet("cat", "IMAGE PATH")
	partition := flags.IntP("partition", "p", 0, "Number of the FAT partition, 0 if the image holds no partition table")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return flag.ErrHelp
	}

	fs, closer, err := openImage(flags.Arg(0), *partition)
	if err != nil {
		return err
	}
	defer closer.Close()

	file, err := fs.Open(flags.Arg(1))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(os.Stdout, file)
	return err
}
