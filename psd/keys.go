package psd

// Key is a 4-character code identifying a section, extension record, or
// blend mode. Keys are stored in canonical (big-endian) character order;
// little-endian formats reverse the bytes on the wire.
type Key string

// Resource keys used by ImageSourceData sections and layer extension
// records.
const (
	KeyAlpha                  Key = "Alph"
	KeyAnimationEffects       Key = "anFX"
	KeyAnnotations            Key = "Anno"
	KeyArtboardData           Key = "artb"
	KeyArtboardData2          Key = "artd"
	KeyArtboardData3          Key = "abdd"
	KeyBlackAndWhite          Key = "blwh"
	KeyBlendClippingElements  Key = "clbl"
	KeyBlendInteriorElements  Key = "infx"
	KeyBrightnessContrast     Key = "brit"
	KeyChannelBlendRestrict   Key = "brst"
	KeyChannelMixer           Key = "mixr"
	KeyColorBalance           Key = "blnc"
	KeyColorLookup            Key = "clrL"
	KeyCompositorInfo         Key = "cinf"
	KeyContentGeneratorExtra  Key = "CgEd"
	KeyCurves                 Key = "curv"
	KeyEffectsLayer           Key = "lrFX"
	KeyExposure               Key = "expA"
	KeyFilterEffects          Key = "FXid"
	KeyFilterEffects2         Key = "FEid"
	KeyFilterMask             Key = "FMsk"
	KeyForeignEffectID        Key = "ffxi"
	KeyGradientFillSetting    Key = "GdFl"
	KeyGradientMap            Key = "grdm"
	KeyHueSaturation          Key = "hue2"
	KeyHueSaturationPS4       Key = "hue "
	KeyInvert                 Key = "nvrt"
	KeyKnockoutSetting        Key = "knko"
	KeyLayer                  Key = "Layr"
	KeyLayer16                Key = "Lr16"
	KeyLayer32                Key = "Lr32"
	KeyLayerID                Key = "lyid"
	KeyLayerMaskAsGlobalMask  Key = "lmgm"
	KeyLayerNameSource        Key = "lnsr"
	KeyLayerVersion           Key = "lyvr"
	KeyLevels                 Key = "levl"
	KeyLinkedLayer            Key = "lnkD"
	KeyLinkedLayer2           Key = "lnk2"
	KeyLinkedLayer3           Key = "lnk3"
	KeyLinkedLayerExternal    Key = "lnkE"
	KeyMetadataSetting        Key = "shmd"
	KeyNestedSectionDivider   Key = "lsdk"
	KeyObjectEffectsLayerInfo Key = "lfx2"
	KeyPattern                Key = "patt"
	KeyPatterns               Key = "Patt"
	KeyPatterns2              Key = "Pat2"
	KeyPatterns3              Key = "Pat3"
	KeyPatternData            Key = "shpa"
	KeyPatternFillSetting     Key = "PtFl"
	KeyPhotoFilter            Key = "phfl"
	KeyPixelSourceData        Key = "PxSc"
	KeyPixelSourceDataCC15    Key = "PxSD"
	KeyPlacedLayer            Key = "plLd"
	KeyPlacedLayerCS3         Key = "PlLd"
	KeyPosterize              Key = "post"
	KeyProtectedSetting       Key = "lspf"
	KeyReferencePoint         Key = "fxrp"
	KeySavingMergedTransp     Key = "Mtrn"
	KeySavingMergedTransp2    Key = "MTrn"
	KeySavingMergedTransp16   Key = "Mt16"
	KeySavingMergedTransp32   Key = "Mt32"
	KeySectionDivider         Key = "lsct"
	KeySelectiveColor         Key = "selc"
	KeySheetColorSetting      Key = "lclr"
	KeySmartObjectLayerData   Key = "SoLd"
	KeySmartObjectLayerCC15   Key = "SoLE"
	KeySolidColorSheet        Key = "SoCo"
	KeyTextEngineData         Key = "Txt2"
	KeyThreshold              Key = "thrs"
	KeyTransparencyShapes     Key = "tsly"
	KeyTypeToolInfo           Key = "tySh"
	KeyTypeToolObjectSetting  Key = "TySh"
	KeyUnicodeLayerName       Key = "luni"
	KeyUnicodePathName        Key = "pths"
	KeyUserMask               Key = "LMsk"
	KeyUsingAlignedRendering  Key = "sn2P"
	KeyVectorMaskAsGlobalMask Key = "vmgm"
	KeyVectorMaskSetting      Key = "vmsk"
	KeyVectorMaskSettingCS6   Key = "vsms"
	KeyVectorOriginationData  Key = "vogk"
	KeyVectorStrokeData       Key = "vstk"
	KeyVectorStrokeContent    Key = "vscg"
	KeyVibrance               Key = "vibA"
)

// BlendMode is the 4-character blend mode key of a layer.
type BlendMode Key

// Blend modes.
const (
	BlendPassThrough  BlendMode = "pass"
	BlendNormal       BlendMode = "norm"
	BlendDissolve     BlendMode = "diss"
	BlendDarken       BlendMode = "dark"
	BlendMultiply     BlendMode = "mul "
	BlendColorBurn    BlendMode = "idiv"
	BlendLinearBurn   BlendMode = "lbrn"
	BlendDarkerColor  BlendMode = "dkCl"
	BlendLighten      BlendMode = "lite"
	BlendScreen       BlendMode = "scrn"
	BlendColorDodge   BlendMode = "div "
	BlendLinearDodge  BlendMode = "lddg"
	BlendLighterColor BlendMode = "lgCl"
	BlendOverlay      BlendMode = "over"
	BlendSoftLight    BlendMode = "sLit"
	BlendHardLight    BlendMode = "hLit"
	BlendVividLight   BlendMode = "vLit"
	BlendLinearLight  BlendMode = "lLit"
	BlendPinLight     BlendMode = "pLit"
	BlendHardMix      BlendMode = "hMix"
	BlendDifference   BlendMode = "diff"
	BlendExclusion    BlendMode = "smud"
	BlendSubtract     BlendMode = "fsub"
	BlendDivide       BlendMode = "fdiv"
	BlendHue          BlendMode = "hue "
	BlendSaturation   BlendMode = "sat "
	BlendColor        BlendMode = "colr"
	BlendLuminosity   BlendMode = "lum "
)

// ChannelID identifies the role of a channel within a layer.
type ChannelID int16

const (
	// ChannelRealUserMask is the real user layer mask when both user and
	// vector masks are present.
	ChannelRealUserMask ChannelID = -3
	// ChannelUserMask is the user-supplied layer mask.
	ChannelUserMask ChannelID = -2
	// ChannelTransparencyMask is the layer transparency channel.
	ChannelTransparencyMask ChannelID = -1
	// Channel0 through Channel9 are the color components: red, cyan or
	// gray first, depending on the image mode.
	Channel0 ChannelID = iota - 3
	Channel1
	Channel2
	Channel3
	Channel4
	Channel5
	Channel6
	Channel7
	Channel8
	Channel9
)

func (id ChannelID) String() string {
	switch id {
	case ChannelRealUserMask:
		return "real user mask"
	case ChannelUserMask:
		return "user mask"
	case ChannelTransparencyMask:
		return "transparency"
	default:
		if id >= 0 {
			return "channel" + string(rune('0'+id%10))
		}
		return "unknown"
	}
}

// CompressionType is the per-channel compression code.
type CompressionType int16

const (
	// CompressionUnknown is a placeholder for an unset compression.
	CompressionUnknown CompressionType = -1
	// CompressionRaw stores samples uncompressed.
	CompressionRaw CompressionType = 0
	// CompressionRLE uses PackBits run-length encoding per row, preceded
	// by a row-size table.
	CompressionRLE CompressionType = 1
	// CompressionZIP uses zlib deflate over the whole channel.
	CompressionZIP CompressionType = 2
	// CompressionZIPPrediction uses horizontal differencing (or the
	// floating-point predictor for 32-bit channels) before deflate.
	CompressionZIPPrediction CompressionType = 3
)

func (c CompressionType) String() string {
	switch c {
	case CompressionRaw:
		return "raw"
	case CompressionRLE:
		return "rle"
	case CompressionZIP:
		return "zip"
	case CompressionZIPPrediction:
		return "zip-prediction"
	default:
		return "unknown"
	}
}

// ClippingType controls whether a layer clips to the one below.
type ClippingType uint8

const (
	ClippingBase    ClippingType = 0
	ClippingNonBase ClippingType = 1
)

func (c ClippingType) String() string {
	if c == ClippingNonBase {
		return "non-base"
	}
	return "base"
}

// LayerFlags is the layer record bit-flag set.
type LayerFlags uint8

const (
	// FlagTransparencyProtected locks the layer transparency.
	FlagTransparencyProtected LayerFlags = 1 << 0
	// FlagHidden marks the layer as not visible.
	FlagHidden LayerFlags = 1 << 1
	// FlagObsolete is an obsolete marker bit.
	FlagObsolete LayerFlags = 1 << 2
	// FlagPhotoshop5 is set by Photoshop 5.0 and later and signals that
	// FlagIrrelevant carries information. Some writers misuse it; the
	// bit is preserved verbatim, never reinterpreted.
	FlagPhotoshop5 LayerFlags = 1 << 3
	// FlagIrrelevant marks pixel data irrelevant to document appearance.
	FlagIrrelevant LayerFlags = 1 << 4
)

// MaskFlags is the layer mask bit-flag set.
type MaskFlags uint8

const (
	// MaskRelative positions the mask relative to the layer.
	MaskRelative MaskFlags = 1 << 0
	// MaskDisabled disables the mask.
	MaskDisabled MaskFlags = 1 << 1
	// MaskInvert inverts the mask when blending (obsolete).
	MaskInvert MaskFlags = 1 << 2
	// MaskRendered marks a user mask that came from rendering other
	// data. Its presence also signals the parameter block.
	MaskRendered MaskFlags = 1 << 3
	// MaskApplied marks user and/or vector masks with parameters applied.
	MaskApplied MaskFlags = 1 << 4
)

// MaskParameterFlags announces which mask parameters follow.
type MaskParameterFlags uint8

const (
	// MaskParamUserDensity: user mask density, 1 byte.
	MaskParamUserDensity MaskParameterFlags = 1 << 0
	// MaskParamUserFeather: user mask feather, 8-byte double.
	MaskParamUserFeather MaskParameterFlags = 1 << 1
	// MaskParamVectorDensity: vector mask density, 1 byte.
	MaskParamVectorDensity MaskParameterFlags = 1 << 2
	// MaskParamVectorFeather: vector mask feather, 8-byte double.
	MaskParamVectorFeather MaskParameterFlags = 1 << 3
)

// ColorSpace identifies the color space of mask overlay components.
type ColorSpace int16

const (
	ColorSpaceDummy        ColorSpace = -1
	ColorSpaceRGB          ColorSpace = 0
	ColorSpaceHSB          ColorSpace = 1
	ColorSpaceCMYK         ColorSpace = 2
	ColorSpacePantone      ColorSpace = 3
	ColorSpaceFocoltone    ColorSpace = 4
	ColorSpaceTrumatch     ColorSpace = 5
	ColorSpaceToyo         ColorSpace = 6
	ColorSpaceLab          ColorSpace = 7
	ColorSpaceGray         ColorSpace = 8
	ColorSpaceWideCMYK     ColorSpace = 9
	ColorSpaceHKS          ColorSpace = 10
	ColorSpaceDIC          ColorSpace = 11
	ColorSpaceTotalInk     ColorSpace = 12
	ColorSpaceMonitorRGB   ColorSpace = 13
	ColorSpaceDuotone      ColorSpace = 14
	ColorSpaceOpacity      ColorSpace = 15
	ColorSpaceWeb          ColorSpace = 16
	ColorSpaceGrayFloat    ColorSpace = 17
	ColorSpaceRGBFloat     ColorSpace = 18
	ColorSpaceOpacityFloat ColorSpace = 19
)

// ResourceID identifies an ImageResources block. The full Adobe table is
// open-ended; only ids the library inspects are named.
type ResourceID uint16

const (
	// ResourceResolutionInfo is the ResolutionInfo structure.
	ResourceResolutionInfo ResourceID = 1005
	// ResourceAlphaNames holds alpha channel names.
	ResourceAlphaNames ResourceID = 1006
	// ResourceThumbnailPS4 is the Photoshop 4.0 thumbnail (BGR order).
	ResourceThumbnailPS4 ResourceID = 1033
	// ResourceICCProfile is the embedded ICC profile.
	ResourceICCProfile ResourceID = 1039
	// ResourceThumbnail is the Photoshop 5.0 thumbnail (RGB order).
	ResourceThumbnail ResourceID = 1036
	// ResourceVersionInfo is the version info structure.
	ResourceVersionInfo ResourceID = 1057
	// ResourceEXIF1 is EXIF data block 1.
	ResourceEXIF1 ResourceID = 1058
	// ResourceXMP is the XMP metadata packet.
	ResourceXMP ResourceID = 1060
)
