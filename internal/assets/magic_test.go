package assets

import "testing"

func TestIdentifyByMagicRoundTripsEveryTaggedType(t *testing.T) {
	for _, assetType := range AllAssetTypes() {
		tag, tagged := MagicFor(assetType)
		if !tagged {
			continue
		}
		header := []byte{tag[0], tag[1], tag[2], 'b'}
		identified, ok := IdentifyByMagic(header)
		if !ok {
			t.Fatalf("tag %q for %s not identified", tag, assetType)
		}
		if identified != assetType {
			t.Fatalf("tag %q resolved to %s, want %s", tag, identified, assetType)
		}
	}
}

func TestIdentifyByMagicRejectsUnknownTag(t *testing.T) {
	if _, ok := IdentifyByMagic([]byte("ZZZb")); ok {
		t.Fatalf("unknown tag should not identify")
	}
}

func TestIdentifyByMagicRejectsShortHeader(t *testing.T) {
	if _, ok := IdentifyByMagic([]byte("TE")); ok {
		t.Fatalf("short header should not identify")
	}
}

func TestTaglessTypesHaveNoMagic(t *testing.T) {
	for _, assetType := range []AssetType{TypeJpeg, TypePng, TypeTga, TypeMipTexture, TypeUnknown} {
		if _, tagged := MagicFor(assetType); tagged {
			t.Fatalf("%s should have no magic tag", assetType)
		}
	}
}

func TestMagicTableIsBijective(t *testing.T) {
	seen := map[uint32]AssetType{}
	for _, assetType := range AllAssetTypes() {
		tag, tagged := MagicFor(assetType)
		if !tagged {
			continue
		}
		packed := packMagic(tag)
		if previous, clash := seen[packed]; clash {
			t.Fatalf("tag %q shared by %s and %s", tag, previous, assetType)
		}
		seen[packed] = assetType
	}
}
