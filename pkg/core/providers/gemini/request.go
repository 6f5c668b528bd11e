package gemini

import (
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// buildConnectConfig translates the channel request into a Live setup.
func buildConnectConfig(cfg live.ChannelConfig) *genai.LiveConnectConfig {
	out := &genai.LiveConnectConfig{}
	for _, m := range cfg.ResponseModalities {
		out.ResponseModalities = append(out.ResponseModalities, genai.Modality(strings.ToUpper(m)))
	}
	if len(out.ResponseModalities) == 0 {
		out.ResponseModalities = []genai.Modality{genai.ModalityAudio}
	}
	if cfg.Voice != "" || cfg.Language != "" {
		out.SpeechConfig = &genai.SpeechConfig{LanguageCode: cfg.Language}
		if cfg.Voice != "" {
			out.SpeechConfig.VoiceConfig = &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			}
		}
	}
	if strings.TrimSpace(cfg.SystemInstruction) != "" {
		out.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if cfg.InputTranscription {
		out.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if cfg.OutputTranscription {
		out.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	out.Tools = translateTools(cfg.Tools)
	return out
}

// translateTools groups every declaration into a single function tool.
func translateTools(tools []types.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  translateSchema(tool.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func translateSchema(s *types.JSONSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			prop := s.Properties[name]
			out.Properties[name] = translateSchema(&prop)
		}
		out.PropertyOrdering = names
	}
	if s.Items != nil {
		out.Items = translateSchema(s.Items)
	}
	return out
}

func schemaType(t string) genai.Type {
	switch strings.ToLower(t) {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}
