package main

import (
	"fmt"
	"log"
	"os"

	gofat "github.com/go-fat/gofat"
	"github.com/go-fat/gofat/blockdev"
	"github.com/go-fat/gofat/bootsector"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Usage: "Inspect and manage FAT12/16/32 disk image files",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Lay down a fresh FAT12/16/32 volume on an existing image file",
				Action:    formatImage,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "sector-size", Value: 512, Usage: "bytes per sector"},
					&cli.StringFlag{Name: "fat-type", Usage: "fat12, fat16, or fat32 (default: chosen from image size)"},
					&cli.StringFlag{Name: "label", Usage: "volume label"},
				},
			},
			{
				Name:      "ls",
				Usage:     "List the contents of a directory",
				Action:    listDirectory,
				ArgsUsage: "IMAGE_FILE [PATH]",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "sector-size", Value: 512, Usage: "bytes per sector"},
				},
			},
			{
				Name:      "cat",
				Usage:     "Print the contents of a file to stdout",
				Action:    catFile,
				ArgsUsage: "IMAGE_FILE PATH",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "sector-size", Value: 512, Usage: "bytes per sector"},
				},
			},
			{
				Name:      "label",
				Usage:     "Print or set the volume label",
				Action:    volumeLabel,
				ArgsUsage: "IMAGE_FILE [NEW_LABEL]",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "sector-size", Value: 512, Usage: "bytes per sector"},
				},
			},
			{
				Name:      "fsck-summary",
				Usage:     "Print boot sector geometry and free space, without repairing anything",
				Action:    fsckSummary,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "sector-size", Value: 512, Usage: "bytes per sector"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func parseFatType(s string) (bootsector.FatType, error) {
	switch s {
	case "":
		return 0, nil
	case "fat12":
		return bootsector.FAT12, nil
	case "fat16":
		return bootsector.FAT16, nil
	case "fat32":
		return bootsector.FAT32, nil
	default:
		return 0, fmt.Errorf("unrecognized fat type %q, want fat12, fat16, or fat32", s)
	}
}

func formatImage(context *cli.Context) error {
	path := context.Args().Get(0)
	if path == "" {
		return fmt.Errorf("missing IMAGE_FILE argument")
	}

	fatType, err := parseFatType(context.String("fat-type"))
	if err != nil {
		return err
	}

	dev, err := blockdev.OpenFile(path, uint32(context.Uint("sector-size")), false)
	if err != nil {
		return err
	}
	defer dev.Close()

	_, err = gofat.Format(dev, gofat.FormatOptions{
		FatType:     fatType,
		VolumeLabel: context.String("label"),
	})
	return err
}

func openReadOnly(context *cli.Context, pathArgIndex int) (*blockdev.FileBlockDevice, *gofat.FileSystem, error) {
	path := context.Args().Get(pathArgIndex)
	if path == "" {
		return nil, nil, fmt.Errorf("missing IMAGE_FILE argument")
	}
	dev, err := blockdev.OpenFile(path, uint32(context.Uint("sector-size")), true)
	if err != nil {
		return nil, nil, err
	}
	fsys, err := gofat.Mount(dev, gofat.MountOptions{ReadOnly: true})
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return dev, fsys, nil
}

func listDirectory(context *cli.Context) error {
	dev, fsys, err := openReadOnly(context, 0)
	if err != nil {
		return err
	}
	defer dev.Close()

	dir := fsys.Root()
	path := context.Args().Get(1)
	for _, component := range splitPath(path) {
		dir, err = dir.OpenDirectory(component)
		if err != nil {
			return err
		}
	}

	for _, e := range dir.List() {
		kind := "f"
		if e.IsDir {
			kind = "d"
		}
		fmt.Printf("%s %10d %s\n", kind, e.Size, e.Name)
	}
	return nil
}

func catFile(context *cli.Context) error {
	dev, fsys, err := openReadOnly(context, 0)
	if err != nil {
		return err
	}
	defer dev.Close()

	path := context.Args().Get(1)
	if path == "" {
		return fmt.Errorf("missing PATH argument")
	}
	components := splitPath(path)

	dir := fsys.Root()
	for _, component := range components[:len(components)-1] {
		dir, err = dir.OpenDirectory(component)
		if err != nil {
			return err
		}
	}

	f, err := dir.OpenFile(components[len(components)-1])
	if err != nil {
		return err
	}

	buf := make([]byte, f.Length())
	if _, err := f.Read(0, buf); err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf)
	return err
}

func volumeLabel(context *cli.Context) error {
	newLabel := context.Args().Get(1)
	if newLabel == "" {
		dev, fsys, err := openReadOnly(context, 0)
		if err != nil {
			return err
		}
		defer dev.Close()
		label, err := fsys.VolumeLabel()
		if err != nil {
			return err
		}
		fmt.Println(label)
		return nil
	}

	path := context.Args().Get(0)
	if path == "" {
		return fmt.Errorf("missing IMAGE_FILE argument")
	}
	dev, err := blockdev.OpenFile(path, uint32(context.Uint("sector-size")), false)
	if err != nil {
		return err
	}
	defer dev.Close()

	fsys, err := gofat.Mount(dev, gofat.MountOptions{})
	if err != nil {
		return err
	}
	if err := fsys.SetVolumeLabel(newLabel); err != nil {
		return err
	}
	return fsys.Flush()
}

func fsckSummary(context *cli.Context) error {
	dev, fsys, err := openReadOnly(context, 0)
	if err != nil {
		return err
	}
	defer dev.Close()

	label, err := fsys.VolumeLabel()
	if err != nil {
		return err
	}

	fmt.Printf("fat type:    %s\n", fatTypeName(fsys.FatType()))
	fmt.Printf("volume label: %q\n", label)
	fmt.Printf("total space: %d bytes\n", fsys.TotalSpace())
	fmt.Printf("free space:  %d bytes\n", fsys.FreeSpace())
	return nil
}

func fatTypeName(t bootsector.FatType) string {
	switch t {
	case bootsector.FAT12:
		return "FAT12"
	case bootsector.FAT16:
		return "FAT16"
	case bootsector.FAT32:
		return "FAT32"
	default:
		return "unknown"
	}
}

func splitPath(path string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				out = append(out, path[start:i])
			}
			start = i + 1
		}
	}
	return out
}
