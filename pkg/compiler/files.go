package compiler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/femto/pkg/domain"
)

// FileMode is the access mode of FILEOPEN.
type FileMode int

const (
	ModeRead FileMode = iota
	ModeWrite
	ModeAppend
)

// Load loads a program on the controller task 0.
// The file lives on the controller, its existence is not checked.
func (c *Compiler) Load(file, dir string) {
	path := file
	if dir != "" {
		path = filepath.Join(dir, file)
	}
	c.emit(fmt.Sprintf("PROGRAM 0 LOAD \"%s\"\n", path))
	c.loaded[stem(file)] = struct{}{}
}

// Farcall runs a program previously loaded with Load and stops task 0.
func (c *Compiler) Farcall(file string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if _, ok := c.loaded[stem(file)]; !ok {
		return fmt.Errorf("farcall %s: %w", file, domain.ErrNotLoaded)
	}
	c.emit(
		fmt.Sprintf("FARCALL \"%s\"\n", file),
		"PROGRAM 0 STOP\n",
	)
	return nil
}

// Remove deletes a file on the controller.
func (c *Compiler) Remove(file string) {
	c.emit(fmt.Sprintf("FILEDELETE \"%s\"\n", file))
}

// FileOpen opens a file on the controller and stores its handle in $handle.
func (c *Compiler) FileOpen(handle, file string, mode FileMode) {
	c.emit(fmt.Sprintf("%s = FILEOPEN \"%s\", %d\n", variable(handle), file, mode))
}

// FileWrite writes the given expressions, separated by spaces, on one line.
func (c *Compiler) FileWrite(handle string, exprs ...string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if len(exprs) == 0 {
		return errors.New("filewrite requires at least one expression")
	}
	c.emit(fmt.Sprintf("FILEWRITE %s %s\n", variable(handle), strings.Join(exprs, " \" \" ")))
	return nil
}

// FileClose closes the file handle.
func (c *Compiler) FileClose(handle string) {
	c.emit(fmt.Sprintf("FILECLOSE %s\n\n", variable(handle)))
}

func stem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
