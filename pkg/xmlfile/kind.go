package xmlfile

import (
	"fmt"
	"strings"
)

// Namespaces of the repository metadata documents.
const (
	NamespaceCommon    = "http://linux.duke.edu/metadata/common"
	NamespaceRPM       = "http://linux.duke.edu/metadata/rpm"
	NamespaceFilelists = "http://linux.duke.edu/metadata/filelists"
	NamespaceOther     = "http://linux.duke.edu/metadata/other"
)

// Kind is the type of a metadata document. It fixes the root element and
// its namespaces.
type Kind int

const (
	Primary Kind = iota
	Filelists
	Other
)

type kindInfo struct {
	name   string
	header string
	footer string
}

var kinds = map[Kind]kindInfo{
	Primary: {
		name: "primary",
		header: `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
			`<metadata xmlns="` + NamespaceCommon + `" xmlns:rpm="` + NamespaceRPM + `" packages="%d">` + "\n",
		footer: "</metadata>",
	},
	Filelists: {
		name: "filelists",
		header: `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
			`<filelists xmlns="` + NamespaceFilelists + `" packages="%d">` + "\n",
		footer: "</filelists>",
	},
	Other: {
		name: "other",
		header: `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
			`<otherdata xmlns="` + NamespaceOther + `" packages="%d">` + "\n",
		footer: "</otherdata>",
	},
}

func (k Kind) info() kindInfo {
	info, ok := kinds[k]
	if !ok {
		panic(fmt.Sprintf("xmlfile: invalid document kind %d", int(k)))
	}
	return info
}

// String returns the document name: primary, filelists or other.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HeaderTemplate returns the Printf template of the document header. Its
// only verb is the package count.
func (k Kind) HeaderTemplate() string {
	return k.info().header
}

// Footer returns the closing root tag.
func (k Kind) Footer() string {
	return k.info().footer
}

// ParseKind parses a document kind name.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, info := range kinds {
		if info.name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown document type: %q", name)
}
