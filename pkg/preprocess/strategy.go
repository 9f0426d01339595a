// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import "strings"

const (
	StrategyRecursiveCharacter = "recursive-character"
	StrategyMarkdownHeader     = "markdown-header"
	StrategyHybrid             = "hybrid"
)

// codeSeparators are preferred split points for recursive-character
// chunking of source code (spec §4.11 step 2: "code-aware separators").
var codeSeparators = []string{"\n\n", "\nfunc ", "\nclass ", "\ndef ", "\n}\n", "\n"}

var proseSeparators = []string{"\n\n", "\n", ". ", " "}

// SelectStrategy implements the rule from spec §4.11 step 2: markdown
// structure selects markdown-header; code selects recursive-character
// with code-aware separators; mixed or long prose selects hybrid.
func SelectStrategy(structure Structure, content string) string {
	switch structure {
	case StructureMarkdown:
		return StrategyMarkdownHeader
	case StructureCode:
		return StrategyRecursiveCharacter
	default:
		if len(content) > 4000 && strings.Count(content, "\n\n") > 3 {
			return StrategyHybrid
		}
		return StrategyRecursiveCharacter
	}
}

// TargetChunkSize returns the target chunk size and overlap in characters
// for the given language (spec §4.11 step 2: target 500-1000 chars,
// overlap 10-20% of chunk size; a 1.2x multiplier for dense-character
// languages such as CJK).
func TargetChunkSize(language string) (size, overlap int) {
	size = 800
	if isDenseCharacterLanguage(language) {
		size = int(float64(size) * 1.2)
	}
	overlap = size / 6 // ~16%, within the 10-20% band
	return size, overlap
}

func isDenseCharacterLanguage(language string) bool {
	switch language {
	case "zh", "ja", "ko", "zh-cn", "zh-tw":
		return true
	default:
		return false
	}
}
