package storage

import (
	"mime"
	"path"
	"sort"
)

// objectSource tags every object written by cellhub so archived bundles
// can be told apart from other objects in a shared bucket.
const objectSource = "cellhub"

// objectMeta is the metadata stored next to an object.
type objectMeta struct {
	ContentType        string
	ContentDisposition string
	Metadata           map[string]string
}

// metaFor describes key for upload. Downloads from a bucket console
// keep the bundle's file name.
func metaFor(key, contentType string) objectMeta {
	meta := objectMeta{
		ContentType: contentType,
		Metadata:    map[string]string{"source": objectSource},
	}
	if name := path.Base(key); name != "." && name != "/" {
		meta.ContentDisposition = mime.FormatMediaType("attachment", map[string]string{"filename": name})
	}
	return meta
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
