package assets

import "fmt"

// The first three header bytes of a tagged binary resource are packed into a
// big-endian uint32 with a trailing NUL pad byte. Lookup is a single map
// access; there is no parsing involved.
//
// Types with no entry here (JPEG, PNG, TGA, the handheld MIP container) carry
// no tag and are identified by payload inspection at the upload boundary.
func packMagic(tag [3]byte) uint32 {
	return uint32(tag[0])<<24 | uint32(tag[1])<<16 | uint32(tag[2])<<8
}

// magicTags is the authoritative tag assignment. It must stay bijective:
// buildMagicTables panics at init when two types claim the same tag.
var magicTags = map[AssetType][3]byte{
	TypeTexture:                {'T', 'E', 'X'},
	TypeGtfTexture:             {'G', 'T', 'F'},
	TypeAnimatedTexture:        {'A', 'T', 'X'},
	TypeTextureList:            {'T', 'X', 'L'},
	TypeMesh:                   {'M', 'S', 'H'},
	TypeStaticMesh:             {'S', 'M', 'H'},
	TypeBevel:                  {'B', 'E', 'V'},
	TypeMaterial:               {'M', 'A', 'T'},
	TypeGfxMaterial:            {'G', 'M', 'T'},
	TypeJoint:                  {'J', 'N', 'T'},
	TypeShaderCache:            {'S', 'H', 'C'},
	TypeAnimation:              {'A', 'N', 'M'},
	TypeAnimationBank:          {'A', 'B', 'K'},
	TypeAnimationSet:           {'A', 'S', 'T'},
	TypeAnimationMap:           {'A', 'M', 'P'},
	TypeSkeletonMap:            {'S', 'M', 'P'},
	TypeSkeletonRegistry:       {'S', 'R', 'G'},
	TypeSkeletonAnimStyles:     {'S', 'A', 'S'},
	TypeLevel:                  {'L', 'V', 'L'},
	TypeStreamingChunk:         {'C', 'H', 'K'},
	TypePlan:                   {'P', 'L', 'N'},
	TypePainting:               {'P', 'T', 'G'},
	TypeVoiceRecording:         {'V', 'O', 'P'},
	TypeMotionRecording:        {'R', 'E', 'C'},
	TypeQuest:                  {'Q', 'S', 'T'},
	TypeSyncedProfile:          {'P', 'R', 'F'},
	TypeBigProfile:             {'B', 'P', 'R'},
	TypeAdventureCreateProfile: {'A', 'D', 'C'},
	TypeAdventureSharedData:    {'A', 'D', 'S'},
	TypeAdventurePlayProfile:   {'A', 'D', 'P'},
	TypeGriefReport:            {'G', 'R', 'F'},
	TypeScript:                 {'F', 'S', 'H'},
	TypeLocalProfile:           {'I', 'P', 'R'},
	TypeSettingsCharacter:      {'C', 'H', 'A'},
	TypeSettingsSoftPhysics:    {'S', 'S', 'P'},
	TypeSettingsFluid:          {'S', 'S', 'F'},
	TypeSettingsNetwork:        {'N', 'W', 'S'},
	TypeFontface:               {'F', 'N', 'T'},
	TypeDownloadableContent:    {'D', 'L', 'C'},
	TypeGameConstants:          {'C', 'O', 'N'},
	TypePoppetSettings:         {'P', 'O', 'P'},
	TypeCachedLevelData:        {'C', 'L', 'D'},
	TypeCachedCostumeData:      {'C', 'C', 'D'},
	TypeGame:                   {'G', 'A', 'M'},
	TypePacks:                  {'P', 'C', 'K'},
	TypeSlotList:               {'S', 'L', 'T'},
	TypeEditorSettings:         {'E', 'D', 'S'},
	TypeLimitsSettings:         {'L', 'M', 'T'},
	TypeTutorials:              {'T', 'U', 'T'},
	TypeGuidList:               {'G', 'L', 'T'},
	TypeGuidSubstitution:       {'G', 'S', 'B'},
	TypeAudioMaterials:         {'A', 'U', 'M'},
	TypeMusicSettings:          {'M', 'U', 'S'},
	TypeMixerSettings:          {'M', 'I', 'X'},
	TypeInstrumentSample:       {'I', 'S', 'M'},
	TypeReplayConfig:           {'R', 'E', 'P'},
	TypeDataLabels:             {'D', 'L', 'A'},
	TypePaletteList:            {'P', 'A', 'L'},
	TypePinCollection:          {'P', 'I', 'N'},
	TypeOutfitList:             {'O', 'F', 'T'},
	TypeTranslationTable:       {'T', 'R', 'T'},
}

var magicToType = buildMagicTables()

func buildMagicTables() map[uint32]AssetType {
	table := make(map[uint32]AssetType, len(magicTags))
	for assetType, tag := range magicTags {
		packed := packMagic(tag)
		if existing, clash := table[packed]; clash {
			panic(fmt.Sprintf("assets: magic tag %q claimed by both type %d and type %d", tag, existing, assetType))
		}
		table[packed] = assetType
	}
	return table
}

// IdentifyByMagic resolves the asset type of a blob from its first header
// bytes. The second return is false when the tag is unrecognized or the
// header is too short; callers fall back to heuristic payload detection.
func IdentifyByMagic(header []byte) (AssetType, bool) {
	if len(header) < 3 {
		return TypeUnknown, false
	}
	assetType, ok := magicToType[packMagic([3]byte{header[0], header[1], header[2]})]
	return assetType, ok
}

// MagicFor returns the 3-byte tag for a binary-format asset type. Types
// identified heuristically (JPEG, PNG, TGA, MIP) have no tag.
func MagicFor(assetType AssetType) ([3]byte, bool) {
	tag, ok := magicTags[assetType]
	return tag, ok
}
