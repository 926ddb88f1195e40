// Package morse transliterates plain text into Morse code.
package morse

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultInputFile is read when no input path is given.
	DefaultInputFile = "lorem.txt"
	// DefaultOutputFile is the fixed name of the encoded output.
	DefaultOutputFile = "lorem_morse.txt"
)

// Code maps every supported symbol to its dot/dash sequence.
var Code = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	'.': ".-.-.-", ',': "--..--", ':': "---...", '\'': ".----.", '-': "-....-",
}

// EncodeWord upper-cases word and concatenates the codes of its symbols.
// Upper-casing uses full case mapping, so "ß" becomes "SS". Symbols missing
// from Code are dropped.
func EncodeWord(word string) string {
	var b strings.Builder
	for _, r := range cases.Upper(language.Und).String(word) {
		if code, ok := Code[r]; ok {
			b.WriteString(code)
		}
	}
	return b.String()
}

// EncodeLine encodes each whitespace-separated word of line and puts every
// encoded word on its own line.
func EncodeLine(line string) string {
	words := strings.FieldsFunc(line, isSeparator)
	encoded := make([]string, len(words))
	for i, word := range words {
		encoded[i] = EncodeWord(word)
	}
	return strings.Join(encoded, "\n")
}

// isSeparator reports whether r splits words. Besides Unicode white space
// this includes the ASCII file, group, record and unit separators.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// lineEndings folds CRLF and lone CR into LF.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Encode encodes text line by line and joins the results with newlines.
// "\n", "\r\n" and a lone "\r" all end a line.
func Encode(text string) string {
	if text == "" {
		return ""
	}
	text = lineEndings.Replace(text)
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	encoded := make([]string, len(lines))
	for i, line := range lines {
		encoded[i] = EncodeLine(line)
	}
	return strings.Join(encoded, "\n")
}

// TransliterateFile reads inputPath, encodes it and writes the result to
// outputPath. Empty paths fall back to DefaultInputFile and DefaultOutputFile.
func TransliterateFile(inputPath, outputPath string) error {
	if inputPath == "" {
		inputPath = DefaultInputFile
	}
	if outputPath == "" {
		outputPath = DefaultOutputFile
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("transliterate: read input: %w", err)
	}

	encoded := Encode(string(data))
	if err := os.WriteFile(outputPath, []byte(encoded), 0o644); err != nil {
		return fmt.Errorf("transliterate: write output: %w", err)
	}

	slog.Info("transliterated file", "input", inputPath, "output", outputPath, "bytesIn", len(data), "bytesOut", len(encoded))
	return nil
}
