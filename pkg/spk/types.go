package spk

import (
	"encoding/json"
	"fmt"
)

// Catalog is the decoded answer of one source for one device and channel.
// It is also the serialized form kept in the catalog cache.
type Catalog struct {
	Packages []RawPackage `json:"packages"`
}

// RawPackage is one package record as published by a source.
type RawPackage struct {
	Package       string  `json:"package"`
	DisplayName   string  `json:"dname,omitempty"`
	Description   string  `json:"desc,omitempty"`
	Version       string  `json:"version,omitempty"`
	Thumbnails    URLList `json:"thumbnail,omitempty"`
	Icon          string  `json:"icon,omitempty"`
	Link          string  `json:"link,omitempty"`
	Maintainer    string  `json:"maintainer,omitempty"`
	MaintainerURL string  `json:"maintainer_url,omitempty"`
	Distributor   string  `json:"distributor,omitempty"`
	Changelog     string  `json:"changelog,omitempty"`
	Beta          bool    `json:"beta,omitempty"`
}

// UnmarshalJSON accepts "name" as an alias for "package".
func (p *RawPackage) UnmarshalJSON(data []byte) error {
	type plain RawPackage
	var aux struct {
		plain
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = RawPackage(aux.plain)
	if p.Package == "" {
		p.Package = aux.Name
	}
	return nil
}

// URLList is a list of URLs that some sources publish as a single string.
type URLList []string

// UnmarshalJSON accepts null, a string or an array of strings.
func (l *URLList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
		} else {
			*l = URLList{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	*l = list
	return nil
}

// Package is the client-facing projection of a RawPackage.
type Package struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"displayName"`
	Description   string   `json:"description"`
	Version       string   `json:"version"`
	Thumbnails    []string `json:"thumbnailUrls,omitempty"`
	IconFileName  string   `json:"iconFileName"`
	Source        string   `json:"source"`
	Link          string   `json:"link,omitempty"`
	Maintainer    string   `json:"maintainer,omitempty"`
	MaintainerURL string   `json:"maintainerUrl,omitempty"`
	Distributor   string   `json:"distributor,omitempty"`
	Changelog     string   `json:"changelog,omitempty"`
	IsBeta        bool     `json:"isBeta"`
}

// Project maps p to a Package owned by source with the given icon file.
// The inline icon payload is not carried over.
func (p RawPackage) Project(source, iconFileName string) Package {
	var thumbs []string
	if len(p.Thumbnails) > 0 {
		thumbs = append([]string(nil), p.Thumbnails...)
	}
	return Package{
		Name:          p.Package,
		DisplayName:   p.DisplayName,
		Description:   p.Description,
		Version:       p.Version,
		Thumbnails:    thumbs,
		IconFileName:  iconFileName,
		Source:        source,
		Link:          p.Link,
		Maintainer:    p.Maintainer,
		MaintainerURL: p.MaintainerURL,
		Distributor:   p.Distributor,
		Changelog:     p.Changelog,
		IsBeta:        p.Beta,
	}
}
