// Package cases loads verification cases from YAML files. A file holds either one case
// at the top level or a list under "cases".
package cases

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/ragcheck/internal/extract"
	"github.com/hyperjump/ragcheck/internal/fileid"
	"github.com/hyperjump/ragcheck/internal/verify"
)

// DefaultExtensions are the case file extensions recognised when none are configured.
var DefaultExtensions = []string{".yaml", ".yml"}

// Case is one response to verify together with its retrieval context.
type Case struct {
	ID               string   `yaml:"-"`
	Path             string   `yaml:"-"`
	Name             string   `yaml:"name"`
	Response         string   `yaml:"response"`
	Question         string   `yaml:"question"`
	RetrievedDocs    []string `yaml:"retrieved_docs"`
	DocumentFiles    []string `yaml:"document_files"`
	SplitParagraphs  bool     `yaml:"split_paragraphs"`
	ChunkWords       int      `yaml:"chunk_words"`
	ChunkOverlap     int      `yaml:"chunk_overlap"`
	ExpectedResponse *string  `yaml:"expected_response"`

	documents []string
}

// Context returns the verification context: inline documents followed by the text
// of each document file. RetrievedDocs is nil only when the case names no documents.
func (c *Case) Context() verify.Context {
	return verify.Context{
		Question:         c.Question,
		RetrievedDocs:    c.documents,
		ExpectedResponse: c.ExpectedResponse,
	}
}

type caseList struct {
	Cases []*Case `yaml:"cases"`
}

// Loader reads case files, extracting document files with an extract.Extractor.
type Loader struct {
	extractor  *extract.Extractor
	extensions []string
}

// NewLoader returns a Loader for files with the given extensions (DefaultExtensions when empty).
func NewLoader(extensions []string) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Loader{extractor: extract.NewExtractor(), extensions: extensions}
}

// IsCaseFile reports whether path has one of the loader's extensions.
func (l *Loader) IsCaseFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// LoadFile parses the case file at path and resolves its document files relative to
// the file's directory.
func (l *Loader) LoadFile(path string) ([]*Case, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	cases, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse case file %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	for i, c := range cases {
		c.Path = abs
		c.ID = fileid.CaseID(abs, i)
		if c.Name == "" {
			c.Name = base
			if len(cases) > 1 {
				c.Name += "#" + strconv.Itoa(i+1)
			}
		}
		if err := l.resolveDocuments(c, filepath.Dir(abs)); err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
	}
	return cases, nil
}

// LoadDir loads every case file under dir, in lexical path order.
func (l *Loader) LoadDir(dir string) ([]*Case, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if l.IsCaseFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var all []*Case
	for _, p := range paths {
		cases, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, cases...)
	}
	return all, nil
}

// Load loads a case file or, for a directory, every case file under it.
func (l *Loader) Load(path string) ([]*Case, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

func parse(data []byte) ([]*Case, error) {
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, errors.New("empty case file")
	}

	if _, ok := probe["cases"]; ok {
		var list caseList
		if err := decodeStrict(data, &list); err != nil {
			return nil, err
		}
		if len(list.Cases) == 0 {
			return nil, errors.New("cases list is empty")
		}
		for i, c := range list.Cases {
			if c == nil {
				return nil, fmt.Errorf("case %d is empty", i+1)
			}
		}
		return list.Cases, nil
	}

	var c Case
	if err := decodeStrict(data, &c); err != nil {
		return nil, err
	}
	return []*Case{&c}, nil
}

func decodeStrict(data []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

func (l *Loader) resolveDocuments(c *Case, dir string) error {
	if c.RetrievedDocs == nil && c.DocumentFiles == nil {
		return nil
	}
	var chunker *extract.Chunker
	if c.ChunkWords > 0 {
		var err error
		if chunker, err = extract.NewChunker(c.ChunkWords, c.ChunkOverlap); err != nil {
			return err
		}
	}
	docs := make([]string, 0, len(c.RetrievedDocs)+len(c.DocumentFiles))
	docs = append(docs, c.RetrievedDocs...)
	for _, f := range c.DocumentFiles {
		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		text, err := l.extractor.Extract(path)
		if err != nil {
			return fmt.Errorf("document file %s: %w", f, err)
		}
		pieces := []string{strings.TrimSpace(text)}
		if c.SplitParagraphs {
			pieces = extract.SplitParagraphs(text)
		}
		for _, p := range pieces {
			switch {
			case chunker != nil:
				docs = append(docs, chunker.Chunk(p)...)
			case p != "":
				docs = append(docs, p)
			}
		}
	}
	c.documents = docs
	return nil
}
