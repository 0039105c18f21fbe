package catalog

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// coinImageFolder is the folder under the asset root that holds coin images.
// Folder names on disk are matched after trimming surrounding whitespace.
const coinImageFolder = "coin image"

// imageExtensions are tried in order of preference.
var imageExtensions = []string{"jpg", "jpeg", "png"}

// ImageFinder locates coin images laid out as
// <root>/coin image/<period folder>/<dynasty>/<king>/<code>.<ext>.
type ImageFinder struct {
	fsys          fs.FS
	urlPrefix     string
	periodFolders map[string]string
}

// NewImageFinder returns a finder rooted at dir whose URLs start with
// urlPrefix (for example "/static/asset").
func NewImageFinder(dir, urlPrefix string, periodFolders map[string]string) *ImageFinder {
	return NewImageFinderFS(os.DirFS(dir), urlPrefix, periodFolders)
}

// NewImageFinderFS is like NewImageFinder but reads from fsys.
func NewImageFinderFS(fsys fs.FS, urlPrefix string, periodFolders map[string]string) *ImageFinder {
	return &ImageFinder{
		fsys:          fsys,
		urlPrefix:     strings.TrimRight(urlPrefix, "/"),
		periodFolders: periodFolders,
	}
}

// Find returns the URL of the image for a coin, or "" when any folder on
// the way or the file itself is missing.
func (f *ImageFinder) Find(period Period, dynasty, kingName, code string) string {
	if dynasty == "" || kingName == "" || code == "" {
		return ""
	}
	periodFolder, ok := f.periodFolders[string(period)]
	if !ok {
		return ""
	}

	root := f.findDir(".", func(name string) bool {
		return strings.TrimSpace(name) == coinImageFolder
	})
	if root == "" {
		return ""
	}

	periodDir := path.Join(root, periodFolder)
	if info, err := fs.Stat(f.fsys, periodDir); err != nil || !info.IsDir() {
		return ""
	}

	wantDynasty := Normalize(dynasty)
	dynastyDir := f.findDir(periodDir, func(name string) bool {
		return Normalize(name) == wantDynasty
	})
	if dynastyDir == "" {
		return ""
	}

	wantKing := Normalize(kingName)
	kingDir := f.findDir(dynastyDir, func(name string) bool {
		return strings.HasPrefix(Normalize(name), wantKing)
	})
	if kingDir == "" {
		return ""
	}

	file := f.findImage(kingDir, code)
	if file == "" {
		return ""
	}
	return f.url(file)
}

// findDir returns the path of the first sub-directory of dir whose name
// satisfies match.
func (f *ImageFinder) findDir(dir string, match func(string) bool) string {
	entries, err := fs.ReadDir(f.fsys, dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() && match(e.Name()) {
			return path.Join(dir, e.Name())
		}
	}
	return ""
}

func (f *ImageFinder) findImage(dir, code string) string {
	sub, err := fs.Sub(f.fsys, dir)
	if err != nil {
		return ""
	}
	pattern := escapeGlob(code) + ".{" + strings.Join(imageExtensions, ",") + "}"
	found, err := doublestar.Glob(sub, pattern)
	if err != nil || len(found) == 0 {
		return ""
	}

	best, bestRank := "", len(imageExtensions)
	for _, name := range found {
		ext := strings.TrimPrefix(path.Ext(name), ".")
		for rank, want := range imageExtensions {
			if ext == want && rank < bestRank {
				best, bestRank = name, rank
			}
		}
	}
	if best == "" {
		return ""
	}
	return path.Join(dir, best)
}

func (f *ImageFinder) url(file string) string {
	parts := strings.Split(file, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return f.urlPrefix + "/" + strings.Join(parts, "/")
}

// Normalize folds s for folder-name comparison: decomposed, combining
// marks removed, lowercased and trimmed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
