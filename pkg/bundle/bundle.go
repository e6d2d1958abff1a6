// Copyright 2025 Best Day Labs.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bundle locates and loads proof bundles from disk.
//
// Two on-disk layouts exist. A standard bundle is a directory holding the
// audio file and a manifest.json (or a manifest file with a sibling audio
// file). A sealed bundle is a single password-protected .proofaudio file.
// This package only does discovery and I/O; all verification happens in
// pkg/verify.
package bundle

import (
	"os"
	"path/filepath"

	"github.com/BestDayLabs/ProofCapture-CLI/pkg/verify"
)

// sealedExtension marks a sealed single-file bundle.
const sealedExtension = ".proofaudio"

// manifestFilename is the manifest's fixed name inside a bundle directory.
const manifestFilename = "manifest.json"

// audioExtensions are the recognized capture formats, in preference order.
var audioExtensions = []string{"m4a", "aac", "mp4", "wav"}

// Recording is a standard bundle loaded into memory.
type Recording struct {
	AudioPath    string
	ManifestPath string
	AudioData    []byte
	ManifestData []byte
}

// IsSealedPath reports whether the path names a sealed bundle.
func IsSealedPath(path string) bool {
	return filepath.Ext(path) == sealedExtension
}

// ReadSealed loads the raw bytes of a sealed bundle file.
func ReadSealed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, verify.NewError(verify.KindIO, err)
	}
	return data, nil
}

// ReadRecording locates and loads a standard bundle. The path is either a
// bundle directory or a manifest file whose audio sits alongside it.
func ReadRecording(path string) (*Recording, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, verify.NewError(verify.KindIO, err)
	}

	var audioPath, manifestPath string
	if info.IsDir() {
		audioPath, err = findAudioFile(path)
		if err != nil {
			return nil, err
		}
		manifestPath = filepath.Join(path, manifestFilename)
		if _, err := os.Stat(manifestPath); err != nil {
			return nil, verify.NewError(verify.KindManifestMalformed, err)
		}
	} else {
		// A lone file is treated as the manifest with a sibling audio file.
		audioPath, err = findAudioFile(filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		manifestPath = path
	}

	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, verify.NewError(verify.KindAudioFileCorrupt, err)
	}
	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, verify.NewError(verify.KindManifestMalformed, err)
	}

	return &Recording{
		AudioPath:    audioPath,
		ManifestPath: manifestPath,
		AudioData:    audioData,
		ManifestData: manifestData,
	}, nil
}

// findAudioFile picks the audio file in dir: the conventional
// recording.<ext> names first, then any file with a recognized extension in
// directory order.
func findAudioFile(dir string) (string, error) {
	for _, ext := range audioExtensions {
		candidate := filepath.Join(dir, "recording."+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", verify.NewError(verify.KindAudioFileMissing, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		for _, want := range audioExtensions {
			if ext == "."+want {
				return filepath.Join(dir, entry.Name()), nil
			}
		}
	}

	return "", verify.NewError(verify.KindAudioFileMissing, nil)
}
