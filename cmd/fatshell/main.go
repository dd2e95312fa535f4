// Command fatshell is the interactive front-end of the partition simulator.
// It parses one command per line and invokes the core operations; all
// presentation (prompt, listing columns, the newline after read) lives
// here.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	fatfs "github.com/FromCaio/fat16-fs-simulator"
)

func main() {
	partition := pflag.String("partition", fatfs.PartitionName, "partition backing file")
	pflag.Parse()

	fs := fatfs.New(afero.NewOsFs(), *partition)
	defer fs.Close()

	fmt.Println("FAT16 File System Simulator. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		args := splitArgs(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			break
		}

		run(fs, args)
	}
}

func run(fs *fatfs.Fs, args []string) {
	cmd := args[0]

	switch cmd {
	case "init":
		if err := fs.Format(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to format file system:", err)
			return
		}
		fmt.Println("File system formatted. Run 'load' to use it.")
		return
	case "load":
		if err := fs.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to load FAT. Did you run 'init' first?", err)
			return
		}
		fmt.Println("File system loaded and ready.")
		return
	}

	if !fs.Loaded() {
		fmt.Fprintln(os.Stderr, "Error: File system not loaded. Run 'init' and 'load' first.")
		return
	}

	var err error
	switch cmd {
	case "ls":
		err = ls(fs, args)
	case "mkdir":
		err = one(args, fs.Mkdir)
	case "create":
		err = one(args, fs.Create)
	case "unlink":
		err = one(args, fs.Unlink)
	case "read":
		err = read(fs, args)
	case "write":
		err = two(args, fs.Write)
	case "append":
		err = two(args, fs.Append)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: '%s'\n", cmd)
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
	}
}

func one(args []string, op func(string) error) error {
	if len(args) != 2 {
		return errors.New("expected exactly one path argument")
	}
	return op(args[1])
}

func two(args []string, op func(string, []byte) error) error {
	if len(args) != 3 {
		return errors.New("expected a quoted string and a path")
	}
	return op(args[2], []byte(args[1]))
}

func ls(fs *fatfs.Fs, args []string) error {
	if len(args) != 2 {
		return errors.New("expected exactly one path argument")
	}

	target, err := fs.Stat(args[1])
	if err != nil {
		return err
	}
	if !target.IsDir() {
		fmt.Println(target.Name())
		return nil
	}

	infos, err := fs.List(args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Listing of '%s':\n", args[1])
	fmt.Println("Type  Size      Name")
	fmt.Println("----  --------  ------------------")
	for _, info := range infos {
		tag := "[F]"
		if info.IsDir() {
			tag = "[D]"
		}
		fmt.Printf("%-4s  %-8d  %s\n", tag, info.Size(), info.Name())
	}
	return nil
}

func read(fs *fatfs.Fs, args []string) error {
	if len(args) != 2 {
		return errors.New("expected exactly one path argument")
	}
	if err := fs.ReadTo(os.Stdout, args[1]); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// splitArgs splits a command line on spaces, keeping double-quoted parts
// together (quotes removed). write and append take their payload this way:
//
//	write "Hello, world!" /docs/hello.txt
func splitArgs(line string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	hasToken := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			hasToken = true
		case r == ' ' && !inQuotes:
			if hasToken {
				args = append(args, current.String())
				current.Reset()
				hasToken = false
			}
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}
	if hasToken {
		args = append(args, current.String())
	}
	return args
}
