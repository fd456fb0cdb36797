package spk

import (
	"errors"
	"testing"
)

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantShape Shape
		wantNames []string
	}{
		{
			name:      "object",
			body:      `{"packages":[{"package":"foo","dname":"Foo","desc":"bar"}]}`,
			wantShape: ShapeObject,
			wantNames: []string{"foo"},
		},
		{
			name:      "array",
			body:      `[{"package":"a"},{"package":"b"}]`,
			wantShape: ShapeArray,
			wantNames: []string{"a", "b"},
		},
		{
			name:      "name alias",
			body:      `{"packages":[{"name":"foo","dname":"Foo"}]}`,
			wantShape: ShapeObject,
			wantNames: []string{"foo"},
		},
		{
			name:      "package wins over name",
			body:      `[{"package":"real","name":"alias"}]`,
			wantShape: ShapeArray,
			wantNames: []string{"real"},
		},
		{
			name:      "array mentioning packages falls back",
			body:      `[{"package":"x","packages":"n/a"}]`,
			wantShape: ShapeArray,
			wantNames: []string{"x"},
		},
		{
			name:      "null packages",
			body:      `{"packages":null}`,
			wantShape: ShapeObject,
		},
		{
			name:      "empty body",
			body:      "  \n\t ",
			wantShape: ShapeEmpty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, shape, err := Parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if shape != tt.wantShape {
				t.Errorf("shape = %v, want %v", shape, tt.wantShape)
			}
			if len(c.Packages) != len(tt.wantNames) {
				t.Fatalf("got %d packages, want %d", len(c.Packages), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if c.Packages[i].Package != name {
					t.Errorf("package[%d] = %q, want %q", i, c.Packages[i].Package, name)
				}
			}
		})
	}
}

func TestParseUnparsable(t *testing.T) {
	for _, body := range []string{
		`<html>Service Unavailable</html>`,
		`{"error":"bad request"}`,
		`{"packages":[{"package":`,
	} {
		_, _, err := Parse([]byte(body))
		if !errors.Is(err, ErrUnparsable) {
			t.Errorf("Parse(%q) = %v, want ErrUnparsable", body, err)
		}
	}
}

func TestParseDoubleEscapedNewlines(t *testing.T) {
	body := `{"packages":[{"package":"foo","desc":"line one\\nline two","changelog":"a\nb"}]}`
	c, _, err := Parse([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Packages[0].Description; got != "line one\nline two" {
		t.Errorf("Description = %q", got)
	}
	if got := c.Packages[0].Changelog; got != "a\nb" {
		t.Errorf("Changelog = %q", got)
	}
}

func TestParseThumbnail(t *testing.T) {
	tests := []struct {
		body string
		want []string
	}{
		{`[{"package":"p","thumbnail":["https://a/1.png","https://a/2.png"]}]`, []string{"https://a/1.png", "https://a/2.png"}},
		{`[{"package":"p","thumbnail":"https://a/1.png"}]`, []string{"https://a/1.png"}},
		{`[{"package":"p","thumbnail":""}]`, nil},
		{`[{"package":"p","thumbnail":null}]`, nil},
		{`[{"package":"p"}]`, nil},
	}
	for _, tt := range tests {
		c, _, err := Parse([]byte(tt.body))
		if err != nil {
			t.Fatalf("Parse(%s): %v", tt.body, err)
		}
		got := c.Packages[0].Thumbnails
		if len(got) != len(tt.want) {
			t.Errorf("%s: thumbnails = %v, want %v", tt.body, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: thumbnails[%d] = %q, want %q", tt.body, i, got[i], tt.want[i])
			}
		}
	}
}

func TestCatalogMarshalRoundTrip(t *testing.T) {
	in := Catalog{Packages: []RawPackage{
		{Package: "foo", DisplayName: "Foo", Description: "multi\nline", Thumbnails: URLList{"//x/y.png"}, Beta: true},
	}}
	data, err := in.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	out, shape, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if shape != ShapeObject {
		t.Errorf("shape = %v, want object", shape)
	}
	p := out.Packages[0]
	if p.Package != "foo" || p.Description != "multi\nline" || !p.Beta || p.Thumbnails[0] != "//x/y.png" {
		t.Errorf("round trip mismatch: %+v", p)
	}

	empty, err := Catalog{}.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(empty) != `{"packages":[]}` {
		t.Errorf("empty catalog = %s", empty)
	}
}

func TestProject(t *testing.T) {
	raw := RawPackage{
		Package:     "foo",
		DisplayName: "Foo",
		Description: "bar",
		Version:     "1.0-1",
		Thumbnails:  URLList{"https://x/foo.png"},
		Icon:        "aWNvbg==",
		Maintainer:  "someone",
	}
	p := raw.Project("synocommunity", "synocommunity_foo.png")
	if p.Name != "foo" || p.DisplayName != "Foo" || p.Description != "bar" {
		t.Errorf("identity fields wrong: %+v", p)
	}
	if p.Source != "synocommunity" || p.IconFileName != "synocommunity_foo.png" {
		t.Errorf("source/icon wrong: %+v", p)
	}
	if p.Maintainer != "someone" {
		t.Errorf("Maintainer = %q", p.Maintainer)
	}

	// The projection owns its thumbnail slice.
	p.Thumbnails[0] = "changed"
	if raw.Thumbnails[0] != "https://x/foo.png" {
		t.Error("Project shares thumbnail storage with the raw record")
	}
}
