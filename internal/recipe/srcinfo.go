package recipe

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ralt/pkgbuilder/internal/models"
)

// SRCINFOFileName is the name of the generated metadata file
const SRCINFOFileName = ".SRCINFO"

// WriteSRCINFO renders the recipe metadata in .SRCINFO format
func WriteSRCINFO(w io.Writer, rcp *models.Recipe) error {
	var buf bytes.Buffer

	writeField := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "\t%s = %s\n", name, value)
		}
	}

	fmt.Fprintf(&buf, "pkgbase = %s\n", rcp.Name)
	writeField("pkgdesc", rcp.Description)
	writeField("pkgver", rcp.Version)
	writeField("pkgrel", strconv.Itoa(rcp.Release))
	writeField("url", rcp.URL)
	for _, a := range rcp.Architectures {
		writeField("arch", string(a))
	}
	for _, l := range rcp.License {
		writeField("license", l)
	}
	for _, d := range rcp.MakeDepends {
		writeField("makedepends", d.String())
	}
	for _, d := range rcp.Depends {
		writeField("depends", d.String())
	}
	fmt.Fprintf(&buf, "\npkgname = %s\n", rcp.Name)

	_, err := w.Write(buf.Bytes())
	return err
}

// ParseSRCINFO reads recipe metadata from a .SRCINFO file. The result has
// no Functions since .SRCINFO does not record them.
func ParseSRCINFO(r io.Reader) (*models.Recipe, error) {
	rcp := &models.Recipe{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, &models.PkgBuildError{
				Type: models.ErrRecipeParse,
				Err:  fmt.Errorf("line %d: expected key = value", lineNo),
			}
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "pkgbase", "pkgname":
			rcp.Name = value
		case "pkgver":
			rcp.Version = value
		case "pkgrel":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &models.PkgBuildError{
					Type: models.ErrRecipeParse,
					Err:  fmt.Errorf("line %d: pkgrel %q is not an integer", lineNo, value),
				}
			}
			rcp.Release = n
		case "pkgdesc":
			rcp.Description = value
		case "url":
			rcp.URL = value
		case "arch":
			rcp.Architectures = append(rcp.Architectures, models.Architecture(value))
		case "license":
			rcp.License = append(rcp.License, value)
		case "depends", "makedepends":
			dep, err := ParseDependency(value)
			if err != nil {
				return nil, &models.PkgBuildError{
					Type: models.ErrRecipeParse,
					Err:  fmt.Errorf("line %d: %w", lineNo, err),
				}
			}
			if key == "depends" {
				rcp.Depends = append(rcp.Depends, dep)
			} else {
				rcp.MakeDepends = append(rcp.MakeDepends, dep)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rcp, nil
}
