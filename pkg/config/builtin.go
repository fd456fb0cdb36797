package config

import "github.com/matzehuels/synopackage/pkg/spk"

func builtinSources() []SourceConfig {
	return []SourceConfig{
		{Name: "synocommunity", URL: "https://packages.synocommunity.com/"},
	}
}

func builtinModels() []ModelConfig {
	return []ModelConfig{
		{Name: "DS216j", Arch: "armada38x"},
		{Name: "DS218+", Arch: "apollolake"},
		{Name: "DS918+", Arch: "apollolake"},
		{Name: "DS220+", Arch: "geminilake"},
		{Name: "DS920+", Arch: "geminilake"},
		{Name: "DS1621+", Arch: "v1000"},
	}
}

func builtinVersions() []spk.Version {
	return []spk.Version{
		{Name: "6.2.4-25556", Major: 6, Minor: 2, Build: 25556},
		{Name: "7.0.1-42218", Major: 7, Minor: 0, Build: 42218},
		{Name: "7.1.1-42962", Major: 7, Minor: 1, Build: 42962},
		{Name: "7.2.2-72806", Major: 7, Minor: 2, Build: 72806},
	}
}
