// Package bytecode decodes the JSON instruction listings produced by
// jvm2json into immutable programs.
package bytecode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultMarker is the annotation that selects the methods of a class
// which end up in the method table.
const DefaultMarker = "dtu/compute/exec/Case"

var ErrNoBytecode = errors.New("method has no bytecode")

// Program is the decoded body of one method.
type Program struct {
	Name     string        `json:"-"`
	Bytecode []Instruction `json:"bytecode"`
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.Bytecode) }

// At returns the instruction at pc.
func (p *Program) At(pc int) (Instruction, bool) {
	if pc < 0 || pc >= len(p.Bytecode) {
		return Instruction{}, false
	}
	return p.Bytecode[pc], true
}

// Table maps method names to their programs.
type Table map[string]*Program

type Annotation struct {
	Type string `json:"type"`
}

type MethodDecl struct {
	Name        string       `json:"name"`
	Annotations []Annotation `json:"annotations"`
	Code        *Program     `json:"code"`
}

// HasAnnotation reports whether the method carries the given annotation type.
func (m MethodDecl) HasAnnotation(typ string) bool {
	for _, a := range m.Annotations {
		if a.Type == typ {
			return true
		}
	}
	return false
}

// Class is a decoded class document.
type Class struct {
	Name    string       `json:"name"`
	Methods []MethodDecl `json:"methods"`
}

// LoadClass decodes a class document from r.
func LoadClass(r io.Reader) (*Class, error) {
	var c Class
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode class: %w", err)
	}
	return &c, nil
}

// LoadClassFile decodes the class document stored at path.
func LoadClassFile(path string) (*Class, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := LoadClass(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// DecodeProgram decodes a single {"bytecode": [...]} record.
func DecodeProgram(name string, data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	p.Name = name
	return &p, nil
}

// Table builds the method table of every method annotated with marker.
// An empty marker selects all methods.
func (c *Class) Table(marker string) (Table, error) {
	t := make(Table)
	for _, m := range c.Methods {
		if marker != "" && !m.HasAnnotation(marker) {
			continue
		}
		if m.Code == nil {
			return nil, fmt.Errorf("%s.%s: %w", c.Name, m.Name, ErrNoBytecode)
		}
		m.Code.Name = m.Name
		t[m.Name] = m.Code
	}
	return t, nil
}

// Merge adds every program of other into t, other winning on clashes.
func (t Table) Merge(other Table) {
	for name, p := range other {
		t[name] = p
	}
}

// LoadTable merges the method tables of every class found at paths. A
// directory contributes each .json file directly inside it, in name order.
// Later classes win when two declare the same method name.
func LoadTable(marker string, paths ...string) (Table, error) {
	t := make(Table)
	for _, path := range paths {
		files, err := classFiles(path)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			c, err := LoadClassFile(file)
			if err != nil {
				return nil, err
			}
			ct, err := c.Table(marker)
			if err != nil {
				return nil, err
			}
			t.Merge(ct)
		}
	}
	return t, nil
}

func classFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	return files, nil
}
