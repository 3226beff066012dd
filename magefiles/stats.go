//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// packageLines counts production and test lines of one Go package.
type packageLines struct {
	Prod int `json:"prod"`
	Test int `json:"test"`
}

// Stats prints Go line counts per package and in total, plus word counts of
// the markdown documents at the repository root, as one JSON record.
func Stats() error {
	perPkg := map[string]*packageLines{}

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != "." && (name == "vendor" || name == binaryDir || name == "magefiles" ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		pkg := filepath.ToSlash(filepath.Dir(path))
		if perPkg[pkg] == nil {
			perPkg[pkg] = &packageLines{}
		}
		if strings.HasSuffix(path, "_test.go") {
			perPkg[pkg].Test += n
		} else {
			perPkg[pkg].Prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	var total packageLines
	for _, c := range perPkg {
		total.Prod += c.Prod
		total.Test += c.Test
	}

	docs := map[string]int{}
	matches, _ := filepath.Glob("*.md")
	sort.Strings(matches)
	for _, path := range matches {
		if n, err := countWords(path); err == nil {
			docs[path] = n
		}
	}

	line, err := json.Marshal(struct {
		Packages map[string]*packageLines `json:"packages"`
		Total    packageLines             `json:"total"`
		DocWords map[string]int           `json:"doc_words"`
	}{perPkg, total, docs})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

func countWords(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return len(strings.FieldsFunc(string(data), unicode.IsSpace)), nil
}
