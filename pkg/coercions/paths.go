package coercions

import (
	"fmt"
	"path"
	"strings"

	"github.com/Ramsey-B/munger/pkg/utils"
)

// Paths may arrive with either Windows or POSIX separators. They are handled with the
// slash-based path package and converted back to the separator the value used.

func separatorOf(p string) string {
	if strings.Contains(p, `\`) && !strings.Contains(p, "/") {
		return `\`
	}
	return "/"
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func fromSlash(p, sep string) string {
	if sep == "/" {
		return p
	}
	return strings.ReplaceAll(p, "/", sep)
}

var ParentFolder = stringCoercion(func(s string) (string, error) {
	sep := separatorOf(s)
	return fromSlash(path.Dir(toSlash(s)), sep), nil
})

var Filename = stringCoercion(func(s string) (string, error) {
	p := toSlash(s)
	if strings.HasSuffix(p, "/") {
		return "", nil
	}
	return path.Base(p), nil
})

// FileExt returns the upper-cased extension without its dot.
var FileExt = stringCoercion(func(s string) (string, error) {
	return strings.ToUpper(strings.TrimPrefix(path.Ext(path.Base(toSlash(s))), ".")), nil
})

// UDSPath delimits with backslashes and bookends the path with backslashes.
var UDSPath = stringCoercion(func(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("cannot convert an empty path")
	}
	p := strings.ReplaceAll(s, "/", `\`)
	if !strings.HasPrefix(p, `\`) {
		p = `\` + p
	}
	if !strings.HasSuffix(p, `\`) {
		p += `\`
	}
	return p, nil
})

type FolderArguments struct {
	Folder string `json:"folder" validate:"required"`
}

func parseFolder(args any) (string, error) {
	if s, ok := args.(string); ok && s != "" {
		return s, nil
	}
	parsed, err := utils.ValidateArguments[FolderArguments](args)
	if err != nil {
		return "", err
	}
	return parsed.Folder, nil
}

// NewRelativeTo strips the leading folder from a path. Paths outside the folder are an error.
func NewRelativeTo(_ string, args any) (Coercion, error) {
	folder, err := parseFolder(args)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(path.Clean(toSlash(folder)), "/")

	return stringCoercion(func(s string) (string, error) {
		sep := separatorOf(s)
		p := path.Clean(toSlash(s))
		if base == "" || base == "." {
			return fromSlash(strings.TrimPrefix(p, "/"), sep), nil
		}
		if !strings.HasPrefix(p, base+"/") {
			return "", fmt.Errorf("'%s' is not in the subpath of '%s'", s, folder)
		}
		return fromSlash(strings.TrimPrefix(p, base+"/"), sep), nil
	}), nil
}

// NewInsertBaseFolder prefixes a path with a base folder.
func NewInsertBaseFolder(_ string, args any) (Coercion, error) {
	folder, err := parseFolder(args)
	if err != nil {
		return nil, err
	}

	return stringCoercion(func(s string) (string, error) {
		sep := separatorOf(s)
		return fromSlash(path.Join(toSlash(folder), toSlash(s)), sep), nil
	}), nil
}
