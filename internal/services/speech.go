package services

import (
	"context"
	"encoding/binary"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	unifiedgenai "google.golang.org/genai"
)

// Audio payload format expected by the playback side.
const (
	AudioSampleRate = 24000
	AudioEncoding   = "pcm_s16le"
)

// cloudChunkBytes keeps each synthesis request under the 5000 byte input cap.
const cloudChunkBytes = 4500

// GeminiSpeech synthesizes through the Gemini TTS models using a prebuilt voice.
type GeminiSpeech struct {
	client *unifiedgenai.Client
	model  string
	voice  string
}

func NewGeminiSpeech(ctx context.Context, apiKey, model, voice string) (*GeminiSpeech, error) {
	client, err := unifiedgenai.NewClient(ctx, &unifiedgenai.ClientConfig{
		APIKey:  apiKey,
		Backend: unifiedgenai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini TTS client: %w", err)
	}
	return &GeminiSpeech{client: client, model: model, voice: voice}, nil
}

func (s *GeminiSpeech) Synthesize(ctx context.Context, script string) ([]byte, error) {
	contents := []*unifiedgenai.Content{
		unifiedgenai.NewContentFromParts([]*unifiedgenai.Part{unifiedgenai.NewPartFromText(script)}, unifiedgenai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &unifiedgenai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &unifiedgenai.SpeechConfig{
			VoiceConfig: &unifiedgenai.VoiceConfig{
				PrebuiltVoiceConfig: &unifiedgenai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini TTS error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var audio []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			audio = append(audio, part.InlineData.Data...)
		}
	}
	if len(audio) == 0 {
		return nil, ErrEmptyResponse
	}
	return stripWAVHeader(audio), nil
}

// CloudSpeech synthesizes through Cloud Text-to-Speech. Long scripts are
// split on sentence boundaries and the PCM of each chunk concatenated.
type CloudSpeech struct {
	client   *texttospeech.Client
	language string
	voice    string
}

func NewCloudSpeech(ctx context.Context, credentialsFile, language, voice string) (*CloudSpeech, error) {
	client, err := texttospeech.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return &CloudSpeech{client: client, language: language, voice: voice}, nil
}

func (s *CloudSpeech) Close() error {
	return s.client.Close()
}

func (s *CloudSpeech) Synthesize(ctx context.Context, script string) ([]byte, error) {
	var audio []byte
	for _, chunk := range splitTextToChunksByByte(script, cloudChunkBytes) {
		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: s.language,
				Name:         s.voice,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
				SampleRateHertz: AudioSampleRate,
			},
		}

		resp, err := s.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("text-to-speech error: %w", err)
		}
		audio = append(audio, stripWAVHeader(resp.AudioContent)...)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyResponse
	}
	return audio, nil
}

// stripWAVHeader returns the samples of the "data" chunk when b is a RIFF/WAVE
// file and b unchanged otherwise.
func stripWAVHeader(b []byte) []byte {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return b
	}
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if id == "data" {
			end := body + size
			if size < 0 || end > len(b) {
				end = len(b)
			}
			return b[body:end]
		}
		off = body + size + size%2
	}
	return b
}

// splitTextToChunksByByte cuts text into pieces of at most maxBytes, preferring
// to end each piece after sentence punctuation and never splitting a rune.
func splitTextToChunksByByte(text string, maxBytes int) []string {
	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxBytes {
			chunks = append(chunks, remaining)
			break
		}

		cutPos := maxBytes
		for i := cutPos; i > 0; i-- {
			if c := remaining[i-1]; c == '.' || c == '!' || c == '?' || c == '\n' {
				cutPos = i
				break
			}
		}

		for cutPos > 0 && cutPos < len(remaining) && (remaining[cutPos]&0xC0) == 0x80 {
			cutPos--
		}
		if cutPos == 0 {
			cutPos = maxBytes
			for cutPos < len(remaining) && (remaining[cutPos]&0xC0) == 0x80 {
				cutPos++
			}
		}

		chunks = append(chunks, remaining[:cutPos])
		remaining = remaining[cutPos:]
	}

	return chunks
}
