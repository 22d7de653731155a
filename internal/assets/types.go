package assets

// AssetType identifies the semantic kind of an uploaded binary blob. The
// enumeration is closed: every value a client can legally upload is listed
// here, and the classifier's base table must cover all of them.
type AssetType int

const (
	// TypeUnknown is the zero value for blobs whose magic and payload both
	// defeated identification. It is never a legal stand-alone upload.
	TypeUnknown AssetType = iota

	// Texture family.
	TypeTexture
	TypeGtfTexture
	TypeMipTexture
	TypeAnimatedTexture
	TypeTextureList

	// Geometry and rendering.
	TypeMesh
	TypeStaticMesh
	TypeBevel
	TypeMaterial
	TypeGfxMaterial
	TypeJoint
	TypeShaderCache

	// Animation.
	TypeAnimation
	TypeAnimationBank
	TypeAnimationSet
	TypeAnimationMap
	TypeSkeletonMap
	TypeSkeletonRegistry
	TypeSkeletonAnimStyles

	// Player-produced content.
	TypeLevel
	TypeStreamingChunk
	TypePlan
	TypePainting
	TypeVoiceRecording
	TypeMotionRecording
	TypeQuest
	TypeSyncedProfile
	TypeBigProfile
	TypeAdventureCreateProfile
	TypeAdventureSharedData
	TypeAdventurePlayProfile
	TypeGriefReport

	// Standard image containers, identified by payload inspection rather
	// than a magic tag.
	TypeJpeg
	TypePng
	TypeTga

	// Script code.
	TypeScript

	// Engine-internal settings, caches, and records. None of these should
	// ever be referenced as a stand-alone uploaded asset.
	TypeLocalProfile
	TypeSettingsCharacter
	TypeSettingsSoftPhysics
	TypeSettingsFluid
	TypeSettingsNetwork
	TypeFontface
	TypeDownloadableContent
	TypeGameConstants
	TypePoppetSettings
	TypeCachedLevelData
	TypeCachedCostumeData
	TypeGame
	TypePacks
	TypeSlotList
	TypeEditorSettings
	TypeLimitsSettings
	TypeTutorials
	TypeGuidList
	TypeGuidSubstitution
	TypeAudioMaterials
	TypeMusicSettings
	TypeMixerSettings
	TypeInstrumentSample
	TypeReplayConfig
	TypeDataLabels
	TypePaletteList
	TypePinCollection
	TypeOutfitList
	TypeTranslationTable

	typeSentinel // keep last
)

// SerializationFormat describes how an asset's payload bytes are encoded on
// the wire, orthogonal to its AssetType. The wire letter is the fourth header
// byte of tagged binary resources.
type SerializationFormat byte

const (
	FormatUnknown           SerializationFormat = 0
	FormatBinary            SerializationFormat = 'b'
	FormatEncryptedBinary   SerializationFormat = 'e'
	FormatCompressedTexture SerializationFormat = ' '
	FormatText              SerializationFormat = 't'
)

// ParseSerializationFormat maps a wire letter to a SerializationFormat.
// Unrecognized letters map to FormatUnknown rather than erroring, because the
// classifier treats unknown formats as their own (suspicious) category.
func ParseSerializationFormat(letter byte) SerializationFormat {
	switch SerializationFormat(letter) {
	case FormatBinary, FormatEncryptedBinary, FormatCompressedTexture, FormatText:
		return SerializationFormat(letter)
	default:
		return FormatUnknown
	}
}

// AssetFlags is the safety/provenance bitset derived from an asset's type,
// serialization format, and vanilla-hash membership. Flags are a computed
// projection and are never persisted as source of truth.
type AssetFlags uint8

const (
	FlagNone      AssetFlags = 0
	FlagDangerous AssetFlags = 1 << 0
	FlagMedia     AssetFlags = 1 << 1
	FlagModded    AssetFlags = 1 << 2
)

// Has reports whether every bit in mask is set.
func (f AssetFlags) Has(mask AssetFlags) bool {
	return f&mask == mask
}

func (f AssetFlags) String() string {
	if f == FlagNone {
		return "none"
	}
	out := ""
	appendName := func(name string) {
		if out != "" {
			out += "|"
		}
		out += name
	}
	if f.Has(FlagDangerous) {
		appendName("dangerous")
	}
	if f.Has(FlagMedia) {
		appendName("media")
	}
	if f.Has(FlagModded) {
		appendName("modded")
	}
	return out
}

// AllAssetTypes returns every declared AssetType, including TypeUnknown.
// Used by construction-time table checks and exhaustiveness tests.
func AllAssetTypes() []AssetType {
	all := make([]AssetType, 0, int(typeSentinel))
	for t := TypeUnknown; t < typeSentinel; t++ {
		all = append(all, t)
	}
	return all
}

// IsImageBearing reports whether the type carries decodable pixel data the
// transcoder can operate on.
func (t AssetType) IsImageBearing() bool {
	switch t {
	case TypeTexture, TypeGtfTexture, TypeMipTexture, TypeJpeg, TypePng, TypeTga:
		return true
	default:
		return false
	}
}

// isTextureContainer reports membership in the texture family whose payloads
// must arrive in FormatCompressedTexture.
func (t AssetType) isTextureContainer() bool {
	switch t {
	case TypeTexture, TypeGtfTexture, TypeMipTexture:
		return true
	default:
		return false
	}
}
