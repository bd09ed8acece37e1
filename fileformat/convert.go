package fileformat

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"notehero/utils"
)

type ConversionOptions struct {
	Channels   int
	SampleRate int
	// OutputFilePath defaults to the input path with a .wav extension.
	OutputFilePath string
	// UseTempDir writes the result to a new uniquely named file under
	// os.TempDir instead of next to the input. The caller removes it.
	UseTempDir bool
}

// ConvertToWAV runs ffmpeg to turn any audio file into 16-bit PCM WAV and
// returns the path of the new file.
func ConvertToWAV(inputFilePath string, opts ConversionOptions) (string, error) {
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", fmt.Errorf("input file does not exist: %w", err)
	}

	//safe proofing channels to 1 if it's not 1 or 2
	if opts.Channels < 1 || opts.Channels > 2 {
		opts.Channels = 1
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}

	outputFile, err := conversionOutput(inputFilePath, opts)
	if err != nil {
		return "", err
	}
	created := opts.OutputFilePath == "" && opts.UseTempDir

	// ffmpeg writes to a temp file first so a failed run never clobbers an existing output
	tempFile := filepath.Join(filepath.Dir(outputFile), "temp_"+filepath.Base(outputFile))
	defer os.Remove(tempFile)

	cmd := exec.Command(
		"ffmpeg",
		"-y",                //overwrite without asking
		"-i", inputFilePath,
		"-c", "pcm_s16le", //signed 16 bit little endian PCM
		"-ar", fmt.Sprint(opts.SampleRate),
		"-ac", fmt.Sprint(opts.Channels),
		tempFile,
	)

	output, err := cmd.CombinedOutput()
	if err == nil {
		err = utils.RenameFile(tempFile, outputFile)
	} else {
		err = fmt.Errorf("failed to convert into wav, err: %w, output: %s", err, string(output))
	}
	if err != nil {
		if created {
			_ = utils.DeleteFile(outputFile)
		}
		return "", err
	}
	return outputFile, nil
}

// conversionOutput picks the WAV path for inputFilePath. Temp outputs are
// created empty so no other file of the same name is ever touched.
func conversionOutput(inputFilePath string, opts ConversionOptions) (string, error) {
	if opts.OutputFilePath != "" {
		return opts.OutputFilePath, nil
	}
	base := strings.TrimSuffix(filepath.Base(inputFilePath), filepath.Ext(inputFilePath))
	if !opts.UseTempDir {
		return filepath.Join(filepath.Dir(inputFilePath), base+".wav"), nil
	}

	f, err := os.CreateTemp("", "notehero-"+base+"-*.wav")
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}
