package astiavlogger

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/iancoleman/strcase"
)

var classCategoryNames = map[astiav.ClassCategory]string{
	astiav.ClassCategoryBitstreamFilter:   "BitstreamFilter",
	astiav.ClassCategoryDecoder:           "Decoder",
	astiav.ClassCategoryDemuxer:           "Demuxer",
	astiav.ClassCategoryDeviceAudioInput:  "DeviceAudioInput",
	astiav.ClassCategoryDeviceAudioOutput: "DeviceAudioOutput",
	astiav.ClassCategoryDeviceInput:       "DeviceInput",
	astiav.ClassCategoryDeviceOutput:      "DeviceOutput",
	astiav.ClassCategoryDeviceVideoInput:  "DeviceVideoInput",
	astiav.ClassCategoryDeviceVideoOutput: "DeviceVideoOutput",
	astiav.ClassCategoryEncoder:           "Encoder",
	astiav.ClassCategoryFilter:            "Filter",
	astiav.ClassCategoryInput:             "Input",
	astiav.ClassCategoryMuxer:             "Muxer",
	astiav.ClassCategoryNa:                "Na",
	astiav.ClassCategoryOutput:            "Output",
	astiav.ClassCategorySwresampler:       "Swresampler",
	astiav.ClassCategorySwscaler:          "Swscaler",
}

// ClassCategoryName returns the snake_case name of a libav class category.
func ClassCategoryName(cat astiav.ClassCategory) string {
	name, ok := classCategoryNames[cat]
	if !ok {
		return fmt.Sprintf("unexpected_class_category_%d", cat)
	}
	return strcase.ToSnake(name)
}
