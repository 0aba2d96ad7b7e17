package domain

// WhisperModelOption describes one downloadable whisper.cpp model preset.
type WhisperModelOption struct {
	Size        ModelSize `json:"size"`
	Name        string    `json:"name"`
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	SizeLabel   string    `json:"sizeLabel,omitempty"`
	Description string    `json:"description,omitempty"`
	Downloaded  bool      `json:"downloaded"`
	LocalPath   string    `json:"localPath,omitempty"`
}

var whisperModelCatalog = []WhisperModelOption{
	{
		Size:        ModelSizeTiny,
		Name:        "Tiny",
		FileName:    "ggml-tiny.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		SizeLabel:   "~75 MB",
		Description: "Fastest multilingual model.",
	},
	{
		Size:        ModelSizeBase,
		Name:        "Base",
		FileName:    "ggml-base.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		SizeLabel:   "~142 MB",
		Description: "Balanced speed and quality.",
	},
	{
		Size:        ModelSizeSmall,
		Name:        "Small",
		FileName:    "ggml-small.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		SizeLabel:   "~466 MB",
		Description: "Higher quality, slower.",
	},
	{
		Size:        ModelSizeMedium,
		Name:        "Medium",
		FileName:    "ggml-medium.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		SizeLabel:   "~1.5 GB",
		Description: "High quality, significantly slower.",
	},
	{
		Size:        ModelSizeLarge,
		Name:        "Large",
		FileName:    "ggml-large-v3.bin",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		SizeLabel:   "~2.9 GB",
		Description: "Best quality, slowest.",
	},
}

// WhisperModelCatalog returns a copy of the supported model presets.
func WhisperModelCatalog() []WhisperModelOption {
	out := make([]WhisperModelOption, len(whisperModelCatalog))
	copy(out, whisperModelCatalog)
	return out
}

// WhisperModelForSize looks up the catalog preset for a model size.
func WhisperModelForSize(size ModelSize) (WhisperModelOption, bool) {
	for _, model := range whisperModelCatalog {
		if model.Size == size {
			return model, true
		}
	}
	return WhisperModelOption{}, false
}
