package assets

import "fmt"

// baseFlags is the total mapping from asset type to its baseline trust
// category:
//
//   - FlagNone: producible by an unmodified client in normal play.
//   - FlagMedia: first-party media payloads. GfxMaterial sits here despite
//     carrying embedded shader code; the format override below still catches
//     it when it masquerades as a texture.
//   - FlagModded: the asset's existence implies a modified client or an
//     offline tool. Vanilla demotion can clear this bit when the hash proves
//     stock provenance.
//   - FlagDangerous | FlagModded: engine-internal types that must never be
//     referenced as stand-alone uploads.
//
// Every AssetType must have an entry. A missing entry is schema drift and
// fails at package init, never at runtime on real data.
var baseFlags = map[AssetType]AssetFlags{
	TypeUnknown: FlagDangerous | FlagModded,

	TypeLevel:                  FlagNone,
	TypeStreamingChunk:         FlagNone,
	TypePlan:                   FlagNone,
	TypeQuest:                  FlagNone,
	TypeSyncedProfile:          FlagNone,
	TypeBigProfile:             FlagNone,
	TypeAdventureCreateProfile: FlagNone,
	TypeAdventureSharedData:    FlagNone,
	TypeAdventurePlayProfile:   FlagNone,
	TypeMotionRecording:        FlagNone,
	TypeGriefReport:            FlagNone,

	TypeTexture:        FlagMedia,
	TypeGtfTexture:     FlagMedia,
	TypeMipTexture:     FlagMedia,
	TypeJpeg:           FlagMedia,
	TypePng:            FlagMedia,
	TypeTga:            FlagMedia,
	TypePainting:       FlagMedia,
	TypeVoiceRecording: FlagMedia,
	TypeGfxMaterial:    FlagMedia,

	TypeMesh:               FlagModded,
	TypeStaticMesh:         FlagModded,
	TypeBevel:              FlagModded,
	TypeMaterial:           FlagModded,
	TypeJoint:              FlagModded,
	TypeAnimation:          FlagModded,
	TypeAnimationBank:      FlagModded,
	TypeAnimationSet:       FlagModded,
	TypeAnimationMap:       FlagModded,
	TypeSkeletonMap:        FlagModded,
	TypeSkeletonRegistry:   FlagModded,
	TypeSkeletonAnimStyles: FlagModded,
	TypeAnimatedTexture:    FlagModded,
	TypeFontface:           FlagModded,

	TypeScript:              FlagDangerous | FlagModded,
	TypeShaderCache:         FlagDangerous | FlagModded,
	TypeTextureList:         FlagDangerous | FlagModded,
	TypeLocalProfile:        FlagDangerous | FlagModded,
	TypeSettingsCharacter:   FlagDangerous | FlagModded,
	TypeSettingsSoftPhysics: FlagDangerous | FlagModded,
	TypeSettingsFluid:       FlagDangerous | FlagModded,
	TypeSettingsNetwork:     FlagDangerous | FlagModded,
	TypeDownloadableContent: FlagDangerous | FlagModded,
	TypeGameConstants:       FlagDangerous | FlagModded,
	TypePoppetSettings:      FlagDangerous | FlagModded,
	TypeCachedLevelData:     FlagDangerous | FlagModded,
	TypeCachedCostumeData:   FlagDangerous | FlagModded,
	TypeGame:                FlagDangerous | FlagModded,
	TypePacks:               FlagDangerous | FlagModded,
	TypeSlotList:            FlagDangerous | FlagModded,
	TypeEditorSettings:      FlagDangerous | FlagModded,
	TypeLimitsSettings:      FlagDangerous | FlagModded,
	TypeTutorials:           FlagDangerous | FlagModded,
	TypeGuidList:            FlagDangerous | FlagModded,
	TypeGuidSubstitution:    FlagDangerous | FlagModded,
	TypeAudioMaterials:      FlagDangerous | FlagModded,
	TypeMusicSettings:       FlagDangerous | FlagModded,
	TypeMixerSettings:       FlagDangerous | FlagModded,
	TypeInstrumentSample:    FlagDangerous | FlagModded,
	TypeReplayConfig:        FlagDangerous | FlagModded,
	TypeDataLabels:          FlagDangerous | FlagModded,
	TypePaletteList:         FlagDangerous | FlagModded,
	TypePinCollection:       FlagDangerous | FlagModded,
	TypeOutfitList:          FlagDangerous | FlagModded,
	TypeTranslationTable:    FlagDangerous | FlagModded,
}

func init() {
	for _, assetType := range AllAssetTypes() {
		if _, ok := baseFlags[assetType]; !ok {
			panic(fmt.Sprintf("assets: no base classification for type %d", assetType))
		}
	}
}

// formatOverride returns the Dangerous bit for type/format pairs that are
// inherently unloadable or exploitable: a level or streaming chunk in
// anything but plain binary, or a texture container not in the compressed
// texture encoding. The override only ever adds Dangerous.
func formatOverride(assetType AssetType, format SerializationFormat) AssetFlags {
	switch {
	case (assetType == TypeLevel || assetType == TypeStreamingChunk) && format != FormatBinary:
		return FlagDangerous
	case assetType.isTextureContainer() && format != FormatCompressedTexture:
		return FlagDangerous
	default:
		return FlagNone
	}
}

// Classify derives the safety flags for a type/format pair. isVanilla is the
// oracle's verdict for the asset's content hash: a stock asset can never be
// modded, regardless of what its type implies, so the Modded bit is cleared
// after both passes. Dangerous and Media are unaffected by vanilla status.
//
// Classify is pure and total over declared AssetType values.
func Classify(assetType AssetType, format SerializationFormat, isVanilla bool) AssetFlags {
	flags := baseFlags[assetType] | formatOverride(assetType, format)
	if isVanilla {
		flags &^= FlagModded
	}
	return flags
}

// Classifier binds Classify to a vanilla oracle so callers holding an
// AssetRecord can ask for flags directly.
type Classifier struct {
	oracle *VanillaOracle
}

// NewClassifier constructs a classifier. A nil oracle is allowed and treats
// every hash as non-vanilla.
func NewClassifier(oracle *VanillaOracle) *Classifier {
	return &Classifier{oracle: oracle}
}

// Flags computes the safety flags for a record. Flags are recomputed on
// every call; callers must not cache them beyond a request without also
// caching the inputs.
func (c *Classifier) Flags(record *AssetRecord) AssetFlags {
	isVanilla := c.oracle != nil && c.oracle.IsVanilla(record.Hash)
	return Classify(record.Type, record.Format, isVanilla)
}
