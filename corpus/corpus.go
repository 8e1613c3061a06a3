// Package corpus 提供对两份静态参考语料（字典、考点）的只读查询。
// 语料在每次查询时从磁盘重新读取，按单个字做精确匹配。
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// DictionaryEntry 字典条目
type DictionaryEntry struct {
	Word        string `json:"字"`
	Explanation string `json:"解释"`
}

// KaodianEntry 考点条目：某字在往年考试中的出处、原句与考察字义
type KaodianEntry struct {
	Source   string `json:"来源"`
	Word     string `json:"字词"`
	Sentence string `json:"对应句"`
	Meaning  string `json:"字义"`
}

type Lookup struct {
	DictionaryPath string
	KaodianPath    string
}

func New(dictionaryPath, kaodianPath string) *Lookup {
	return &Lookup{DictionaryPath: dictionaryPath, KaodianPath: kaodianPath}
}

// LookupDictionary 查询字典，未找到时返回 nil, nil
func (l *Lookup) LookupDictionary(word string) (*DictionaryEntry, error) {
	var entries []DictionaryEntry
	if err := readCorpus(l.DictionaryPath, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Word == word {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// LookupKaodian 查询考点语料，未找到时返回 nil, nil
func (l *Lookup) LookupKaodian(word string) (*KaodianEntry, error) {
	var entries []KaodianEntry
	if err := readCorpus(l.KaodianPath, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Word == word {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func readCorpus(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read corpus %s: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return nil
}
