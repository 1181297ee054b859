package channels

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the image file types picked up by Scan.
var DefaultExtensions = []string{".tif", ".tiff"}

// ScanResult is a directory's image files bucketed by channel tag.
type ScanResult struct {
	// Dir is the scanned directory.
	Dir string `json:"dir"`

	// Channels has one entry per tag, in the order the tags were given.
	// Files are base names, sorted.
	Channels []Channel `json:"channels"`

	// Skipped lists files whose extension is not accepted.
	Skipped []string `json:"skipped,omitempty"`

	// Unassigned lists accepted files that start with none of the tags.
	Unassigned []string `json:"unassigned,omitempty"`
}

// Channel returns the named channel's collection.
func (r *ScanResult) Channel(name string) (Channel, bool) {
	for _, ch := range r.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// Path joins a base name from the result with its directory.
func (r *ScanResult) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// CheckTagLengths reports the first tag whose length differs from prefixLen.
// Match strips exactly prefixLen characters, so a longer or shorter tag
// leaves part of the tag in the identifier.
func CheckTagLengths(tags []string, prefixLen int) error {
	for _, tag := range tags {
		if len(tag) != prefixLen {
			return fmt.Errorf("channel tag %q is %d characters but the prefix length is %d", tag, len(tag), prefixLen)
		}
	}
	return nil
}

// Scan lists the regular files of dir and buckets them by channel tag.
//
// A file is accepted when its extension is one of exts (case-insensitive;
// DefaultExtensions when exts is empty). An accepted file belongs to the
// longest tag it starts with, so "C10" wins over "C1". Subdirectories are
// ignored. The directory is passed explicitly; the working directory is
// never changed.
//
// Scan itself accepts tags of any length. Check them with CheckTagLengths
// before passing the channels to Match.
func Scan(dir string, tags, exts []string) (*ScanResult, error) {
	if len(tags) == 0 {
		return nil, ErrNoChannels
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	accepted := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		accepted[e] = true
	}

	ordered := make([]string, len(tags))
	copy(ordered, tags)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	buckets := make(map[string][]string, len(tags))
	result := &ScanResult{Dir: dir}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !accepted[strings.ToLower(filepath.Ext(name))] {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		tag := ""
		for _, t := range ordered {
			if strings.HasPrefix(name, t) {
				tag = t
				break
			}
		}
		if tag == "" {
			result.Unassigned = append(result.Unassigned, name)
			continue
		}
		buckets[tag] = append(buckets[tag], name)
	}

	for _, t := range tags {
		files := buckets[t]
		sort.Strings(files)
		if files == nil {
			files = []string{}
		}
		result.Channels = append(result.Channels, Channel{Name: t, Files: files})
	}
	sort.Strings(result.Skipped)
	sort.Strings(result.Unassigned)

	return result, nil
}

// Organize copies each channel's files into a subdirectory of dest named
// after the channel and returns the paths written. Existing files with the
// same name are overwritten. The scanned directory is left untouched.
func Organize(r *ScanResult, dest string) ([]string, error) {
	var written []string
	for _, ch := range r.Channels {
		dir := filepath.Join(dest, ch.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, fmt.Errorf("failed to create channel directory: %w", err)
		}
		for _, name := range ch.Files {
			target := filepath.Join(dir, name)
			if err := copyFile(r.Path(name), target); err != nil {
				return written, err
			}
			written = append(written, target)
		}
	}
	return written, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
