package main

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/aligator/rodos"
	"github.com/spf13/afero"
)

// shell is the interactive command layer. It owns all text parsing and all
// human-readable output; the engine only ever sees validated arguments.
type shell struct {
	disk   *rodos.Disk
	fsys   afero.Fs
	config Config
	out    io.Writer
}

var (
	createRe  = regexp.MustCompile(`^(?P<name>\w+)\.(?P<ext>\w+)\s+(?P<size>\d+)\s+-(?P<type>alpha|num|hex|stdin)$`)
	identRe   = regexp.MustCompile(`^(?P<name>\w+)(\.(?P<ext>\w+))?$`)
	formatRe  = regexp.MustCompile(`^(16|32)$`)
	setattrRe = regexp.MustCompile(`^[+-][hr]$`)
)

func (s *shell) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(s.out, "%s%s%s%s%s%s ",
			s.config.Prompt.User, s.config.Prompt.Separator, s.config.Prompt.Host,
			s.config.Prompt.PathPrefix, s.disk.WorkingDirectory(), s.config.Prompt.Terminator)

		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "exit" {
			if err := s.disk.Save(); err != nil {
				fmt.Fprintln(s.out, "error:", err)
			}
			return nil
		}

		if err := s.dispatch(fields[0], fields[1:]); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func (s *shell) dispatch(command string, args []string) error {
	switch command {
	case "create":
		return s.create(args, false)
	case "append":
		return s.create(args, true)
	case "ls":
		return s.list(args)
	case "cat":
		return s.cat(args)
	case "cp":
		return s.copy(args)
	case "rename":
		return s.rename(args)
	case "del":
		return s.delete(args)
	case "mkdir":
		return s.mkdir(args)
	case "cd":
		return s.changeDir(args)
	case "pwd":
		fmt.Fprintln(s.out, s.disk.WorkingDirectory())
		return nil
	case "setattr":
		return s.setattr(args)
	case "format":
		return s.format(args)
	case "defrag":
		if err := s.disk.Defragment(); err != nil {
			return err
		}
		return s.disk.Save()
	case "neofetch":
		return s.neofetch()
	case "help":
		return s.help()
	}
	return fmt.Errorf("unknown command %q, try help", command)
}

func (s *shell) source(contentType string, size uint32) (rodos.Source, error) {
	switch contentType {
	case "alpha":
		return rodos.Alpha(), nil
	case "num":
		return rodos.Num(), nil
	case "hex":
		return rodos.Hex(), nil
	case "stdin":
		data, err := afero.ReadFile(s.fsys, s.config.StdinFilePath)
		if err != nil {
			return nil, err
		}
		return rodos.Bytes(data), nil
	}
	return nil, fmt.Errorf("unknown content type %q", contentType)
}

func (s *shell) create(args []string, appendMode bool) error {
	match := createRe.FindStringSubmatch(strings.Join(args, " "))
	if match == nil {
		return fmt.Errorf("usage: create <name>.<ext> <size> -<alpha|num|hex|stdin>")
	}

	size, err := strconv.ParseUint(match[3], 10, 32)
	if err != nil {
		return err
	}

	source, err := s.source(match[4], uint32(size))
	if err != nil {
		return err
	}

	if appendMode {
		if err := s.disk.Append(match[1], match[2], uint32(size), source); err != nil {
			return err
		}
	} else {
		if _, err := s.disk.Create(match[1], match[2], uint32(size), source); err != nil {
			return err
		}
	}
	return s.disk.Save()
}

func splitIdentity(arg string) (string, string, error) {
	match := identRe.FindStringSubmatch(arg)
	if match == nil {
		return "", "", fmt.Errorf("invalid name %q", arg)
	}
	return match[1], match[3], nil
}

func (s *shell) list(args []string) error {
	options := rodos.ListOptions{SortBy: rodos.SortNone}
	long := false

	for _, arg := range args {
		switch {
		case arg == "-h":
			options.IncludeHidden = true
		case arg == "-l":
			long = true
		case arg == "-f":
			options.OnlyFiles = true
		case arg == "-d":
			options.OnlyDirectories = true
		case strings.HasPrefix(arg, "-name="):
			options.Name = strings.TrimPrefix(arg, "-name=")
		case strings.HasPrefix(arg, "-ext="):
			options.Extension = strings.TrimPrefix(arg, "-ext=")
		case arg == "-na", arg == "-nd":
			options.SortBy = rodos.SortName
			options.Descending = arg == "-nd"
		case arg == "-ta", arg == "-td":
			options.SortBy = rodos.SortModified
			options.Descending = arg == "-td"
		case arg == "-sza", arg == "-szd":
			options.SortBy = rodos.SortSize
			options.Descending = arg == "-szd"
		default:
			return fmt.Errorf("unknown ls option %q", arg)
		}
	}

	entries, err := s.disk.ListDir(options)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !long {
			fmt.Fprintln(s.out, entry.DisplayName())
			continue
		}

		kind := "f"
		if entry.IsDir() {
			kind = "d"
		}
		flags := ""
		if entry.IsHidden() {
			flags += "h"
		}
		if entry.IsReadOnly() {
			flags += "r"
		}
		fmt.Fprintf(s.out, "%s%-2s %-12s %s %d\n",
			kind, flags, entry.DisplayName(), entry.Modified.Format("2006-01-02 15:04:05"), entry.Size)
	}
	return nil
}

func (s *shell) cat(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cat <name>.<ext>")
	}
	name, ext, err := splitIdentity(args[0])
	if err != nil {
		return err
	}

	data, err := s.disk.ReadFile(name, ext)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(data))
	return nil
}

func (s *shell) copy(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: cp <src>.<ext> <dest>.<ext>")
	}
	srcName, srcExt, err := splitIdentity(args[0])
	if err != nil {
		return err
	}
	dstName, dstExt, err := splitIdentity(args[1])
	if err != nil {
		return err
	}

	if err := s.disk.Copy(srcName, srcExt, dstName, dstExt); err != nil {
		return err
	}
	return s.disk.Save()
}

func (s *shell) rename(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: rename <old> <new>")
	}
	oldName, oldExt, err := splitIdentity(args[0])
	if err != nil {
		return err
	}
	newName, newExt, err := splitIdentity(args[1])
	if err != nil {
		return err
	}

	if err := s.disk.Rename(oldName, oldExt, newName, newExt); err != nil {
		return err
	}
	return s.disk.Save()
}

func (s *shell) delete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: del <name>[.<ext>]")
	}
	name, ext, err := splitIdentity(args[0])
	if err != nil {
		return err
	}

	if err := s.disk.Remove(name, ext); err != nil {
		return err
	}
	return s.disk.Save()
}

func (s *shell) mkdir(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: mkdir <name>")
	}
	if _, err := s.disk.Mkdir(args[0]); err != nil {
		return err
	}
	return s.disk.Save()
}

func (s *shell) changeDir(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cd <path>")
	}
	return s.disk.ChangeDirectory(args[0])
}

func (s *shell) setattr(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: setattr <name>[.<ext>] <+h|-h|+r|-r> [toggle]")
	}
	name, ext, err := splitIdentity(args[0])
	if err != nil {
		return err
	}

	toggles := []rodos.AttrToggle{}
	for _, arg := range args[1:] {
		if !setattrRe.MatchString(arg) {
			return fmt.Errorf("invalid attribute toggle %q", arg)
		}
		switch arg {
		case "+h":
			toggles = append(toggles, rodos.SetHidden)
		case "-h":
			toggles = append(toggles, rodos.ClearHidden)
		case "+r":
			toggles = append(toggles, rodos.SetReadOnly)
		case "-r":
			toggles = append(toggles, rodos.ClearReadOnly)
		}
	}

	if err := s.disk.SetAttributes(name, ext, toggles...); err != nil {
		return err
	}
	return s.disk.Save()
}

func (s *shell) format(args []string) error {
	if len(args) != 1 || !formatRe.MatchString(args[0]) {
		return fmt.Errorf("usage: format <16|32>")
	}

	width, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return err
	}

	if err := s.disk.Format(uint8(width)); err != nil {
		return err
	}
	return s.disk.Save()
}

func (s *shell) neofetch() error {
	header := s.disk.Header()
	fmt.Fprintf(s.out, "%s %s\n", s.config.OS, s.config.Version)
	fmt.Fprintf(s.out, "author:   %s\n", s.config.Author)
	fmt.Fprintf(s.out, "clusters: %d x %d bytes (FAT%d)\n",
		header.ClusterCount, header.ClusterSize, header.TableWidth)
	fmt.Fprintf(s.out, "space:    %d free / %d total bytes\n",
		s.disk.FreeSpace(), s.disk.TotalSpace())
	return nil
}

func (s *shell) help() error {
	fmt.Fprint(s.out, `commands:
  create <name>.<ext> <size> -<alpha|num|hex|stdin>   create a file
  append <name>.<ext> <size> -<alpha|num|hex|stdin>   append to a file
  ls [-h] [-l] [-f] [-d] [-name=N] [-ext=E] [-na|-nd|-ta|-td|-sza|-szd]
  cat <name>.<ext>                                    print file content
  cp <src>.<ext> <dest>.<ext>                         copy a file
  rename <old> <new>                                  rename file or directory
  del <name>[.<ext>]                                  delete file or directory
  mkdir <name>  cd <path>  pwd                        directories
  setattr <name>[.<ext>] <+h|-h|+r|-r> [toggle]       attributes
  format <16|32>  defrag  neofetch  help  exit
`)
	return nil
}
