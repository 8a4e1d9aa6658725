package manifest

import "fmt"

// Change kinds reported by Diff
const (
	Added   = "added"
	Removed = "removed"
	Changed = "changed"
)

// Difference is one path that differs between two manifests
type Difference struct {
	Path   string
	Kind   string
	Detail string
}

func (d Difference) String() string {
	if d.Detail != "" {
		return fmt.Sprintf("%s %s (%s)", d.Kind, d.Path, d.Detail)
	}
	return fmt.Sprintf("%s %s", d.Kind, d.Path)
}

// Diff lists the paths that differ from a to b, in path order
func Diff(a, b *Manifest) []Difference {
	var diffs []Difference

	i, j := 0, 0
	for i < len(a.Entries) || j < len(b.Entries) {
		switch {
		case j >= len(b.Entries) || (i < len(a.Entries) && a.Entries[i].Path < b.Entries[j].Path):
			diffs = append(diffs, Difference{Path: a.Entries[i].Path, Kind: Removed})
			i++
		case i >= len(a.Entries) || b.Entries[j].Path < a.Entries[i].Path:
			diffs = append(diffs, Difference{Path: b.Entries[j].Path, Kind: Added})
			j++
		default:
			if detail := compare(a.Entries[i], b.Entries[j]); detail != "" {
				diffs = append(diffs, Difference{Path: a.Entries[i].Path, Kind: Changed, Detail: detail})
			}
			i++
			j++
		}
	}

	return diffs
}

func compare(a, b Entry) string {
	switch {
	case a.Type != b.Type:
		return fmt.Sprintf("type %s -> %s", a.Type, b.Type)
	case a.Mode != b.Mode:
		return fmt.Sprintf("mode %o -> %o", a.Mode, b.Mode)
	case a.Size != b.Size:
		return fmt.Sprintf("size %d -> %d", a.Size, b.Size)
	case a.SHA256 != b.SHA256, a.MD5 != b.MD5:
		return "content"
	case a.Link != b.Link:
		return fmt.Sprintf("link %s -> %s", a.Link, b.Link)
	}
	return ""
}
