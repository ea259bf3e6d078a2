package wav

import (
	"encoding/binary"
	"os"
	"os/exec"

	"github.com/tidwall/gjson"

	"audiofp/apperr"
)

// WavInfo is the decoded header plus PCM body of a 16-bit WAV file,
// already split into a left-channel sample slice in [-1, 1].
type WavInfo struct {
	Channels           int
	SampleRate         int
	Duration           float64
	LeftChannelSamples []float64
}

// ReadWavInfo reads filename as a canonical 44-byte-header PCM WAV file
// and converts its data chunk to float64 samples scaled to [-1, 1].
// Only mono or stereo, 16-bit PCM input is supported; stereo input is
// reduced to its left channel, matching the format the audio adapter
// normalizes everything to before it reaches the core.
func ReadWavInfo(filename string) (WavInfo, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return WavInfo{}, apperr.Wrap(apperr.Storage, "reading wav file", err)
	}
	if len(data) < 44 {
		return WavInfo{}, apperr.New(apperr.InvalidInput, "invalid WAV file size (too small)")
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WavInfo{}, apperr.New(apperr.InvalidInput, "invalid WAV header format")
	}
	audioFormat := binary.LittleEndian.Uint16(data[20:22])
	if audioFormat != 1 {
		return WavInfo{}, apperr.New(apperr.InvalidInput, "invalid WAV header format")
	}

	numChannels := int(binary.LittleEndian.Uint16(data[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	bitsPerSample := binary.LittleEndian.Uint16(data[34:36])
	if bitsPerSample != 16 {
		return WavInfo{}, apperr.New(apperr.InvalidInput, "unsupported bits per sample format")
	}

	body := data[44:]
	samples, err := WavBytesToSamples(body)
	if err != nil {
		return WavInfo{}, err
	}

	var left []float64
	if numChannels == 2 {
		left = make([]float64, len(samples)/2)
		for i := range left {
			left[i] = samples[i*2]
		}
	} else {
		left = samples
	}

	duration := float64(len(left)) / float64(sampleRate)

	return WavInfo{
		Channels:           numChannels,
		SampleRate:         sampleRate,
		Duration:           duration,
		LeftChannelSamples: left,
	}, nil
}

// WavBytesToSamples converts 16-bit little-endian PCM bytes to float64
// samples in [-1, 1].
func WavBytesToSamples(input []byte) ([]float64, error) {
	if len(input)%2 != 0 {
		return nil, apperr.New(apperr.InvalidInput, "invalid input length")
	}

	numSamples := len(input) / 2
	output := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		sample := int16(binary.LittleEndian.Uint16(input[i*2 : i*2+2]))
		output[i] = float64(sample) / 32768.0
	}
	return output, nil
}

// WriteWavFile writes data as a canonical WAV file with a 44-byte PCM header.
func WriteWavFile(filename string, data []byte, sampleRate, channels, bitsPerSample int) error {
	if sampleRate <= 0 || channels <= 0 || bitsPerSample <= 0 {
		return apperr.New(apperr.InvalidInput, "sampleRate, channels and bitsPerSample must be positive")
	}

	f, err := os.Create(filename)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "creating wav file", err)
	}
	defer f.Close()

	if err := WriteWavHeader(f, data, sampleRate, channels, bitsPerSample); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return apperr.Wrap(apperr.Storage, "writing wav data", err)
	}
	return nil
}

// WriteWavHeader writes the 44-byte canonical PCM WAV header for data to w.
func WriteWavHeader(w *os.File, data []byte, sampleRate, channels, bitsPerSample int) error {
	if len(data)%channels != 0 {
		return apperr.New(apperr.InvalidInput, "data size not divisible by channels")
	}

	bytesPerSample := bitsPerSample / 8
	blockAlign := channels * bytesPerSample
	byteRate := sampleRate * blockAlign
	subchunk2Size := len(data)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+subchunk2Size))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(subchunk2Size))

	if _, err := w.Write(header); err != nil {
		return apperr.Wrap(apperr.Storage, "writing wav header", err)
	}
	return nil
}

// Format is the "format" section of an ffprobe report, including the
// container-level tags (title/artist/album etc.) we read for metadata
// fallback during ingest.
type Format struct {
	Filename string
	Duration string
	Tags     map[string]string
}

// Metadata is the subset of an ffprobe JSON report this module cares about.
type Metadata struct {
	Format Format
}

// GetMetadata shells out to ffprobe and extracts container tags using
// gjson, rather than unmarshalling the entire (and much larger) stream
// report into Go structs we'd otherwise never touch.
func GetMetadata(filePath string) (Metadata, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.DSPFailure, "ffprobe metadata query failed", err)
	}

	if !gjson.ValidBytes(out) {
		return Metadata{}, apperr.New(apperr.DSPFailure, "ffprobe returned invalid JSON")
	}

	root := gjson.ParseBytes(out)
	format := root.Get("format")

	tags := make(map[string]string)
	format.Get("tags").ForEach(func(key, value gjson.Result) bool {
		tags[key.String()] = value.String()
		return true
	})

	return Metadata{
		Format: Format{
			Filename: format.Get("filename").String(),
			Duration: format.Get("duration").String(),
			Tags:     tags,
		},
	}, nil
}
