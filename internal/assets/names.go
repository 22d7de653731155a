package assets

import "fmt"

var typeNames = map[AssetType]string{
	TypeUnknown:                "unknown",
	TypeTexture:                "texture",
	TypeGtfTexture:             "gtf_texture",
	TypeMipTexture:             "mip_texture",
	TypeAnimatedTexture:        "animated_texture",
	TypeTextureList:            "texture_list",
	TypeMesh:                   "mesh",
	TypeStaticMesh:             "static_mesh",
	TypeBevel:                  "bevel",
	TypeMaterial:               "material",
	TypeGfxMaterial:            "gfx_material",
	TypeJoint:                  "joint",
	TypeShaderCache:            "shader_cache",
	TypeAnimation:              "animation",
	TypeAnimationBank:          "animation_bank",
	TypeAnimationSet:           "animation_set",
	TypeAnimationMap:           "animation_map",
	TypeSkeletonMap:            "skeleton_map",
	TypeSkeletonRegistry:       "skeleton_registry",
	TypeSkeletonAnimStyles:     "skeleton_anim_styles",
	TypeLevel:                  "level",
	TypeStreamingChunk:         "streaming_chunk",
	TypePlan:                   "plan",
	TypePainting:               "painting",
	TypeVoiceRecording:         "voice_recording",
	TypeMotionRecording:        "motion_recording",
	TypeQuest:                  "quest",
	TypeSyncedProfile:          "synced_profile",
	TypeBigProfile:             "big_profile",
	TypeAdventureCreateProfile: "adventure_create_profile",
	TypeAdventureSharedData:    "adventure_shared_data",
	TypeAdventurePlayProfile:   "adventure_play_profile",
	TypeGriefReport:            "grief_report",
	TypeJpeg:                   "jpeg",
	TypePng:                    "png",
	TypeTga:                    "tga",
	TypeScript:                 "script",
	TypeLocalProfile:           "local_profile",
	TypeSettingsCharacter:      "settings_character",
	TypeSettingsSoftPhysics:    "settings_soft_physics",
	TypeSettingsFluid:          "settings_fluid",
	TypeSettingsNetwork:        "settings_network",
	TypeFontface:               "fontface",
	TypeDownloadableContent:    "downloadable_content",
	TypeGameConstants:          "game_constants",
	TypePoppetSettings:         "poppet_settings",
	TypeCachedLevelData:        "cached_level_data",
	TypeCachedCostumeData:      "cached_costume_data",
	TypeGame:                   "game",
	TypePacks:                  "packs",
	TypeSlotList:               "slot_list",
	TypeEditorSettings:         "editor_settings",
	TypeLimitsSettings:         "limits_settings",
	TypeTutorials:              "tutorials",
	TypeGuidList:               "guid_list",
	TypeGuidSubstitution:       "guid_substitution",
	TypeAudioMaterials:         "audio_materials",
	TypeMusicSettings:          "music_settings",
	TypeMixerSettings:          "mixer_settings",
	TypeInstrumentSample:       "instrument_sample",
	TypeReplayConfig:           "replay_config",
	TypeDataLabels:             "data_labels",
	TypePaletteList:            "palette_list",
	TypePinCollection:          "pin_collection",
	TypeOutfitList:             "outfit_list",
	TypeTranslationTable:       "translation_table",
}

func (t AssetType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("asset_type(%d)", int(t))
}
