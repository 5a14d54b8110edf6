package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"gopkg.in/yaml.v2"

	"github.com/spf13/viper"
)

// Утилита на этап деплоя: опрашивает ListModels, выбирает первую доступную
// модель с поддержкой generateContent из списка предпочтений и прописывает
// её в configs/<file> (classifier.model). Ядро на рантайме модели не перебирает.

const listModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

var preferred = []string{
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro",
	"gemini-pro",
}

type listedModel struct {
	Name             string   `json:"name"` // "models/gemini-1.5-flash"
	SupportedMethods []string `json:"supportedGenerationMethods"`
}

func fetchModels(key string) ([]listedModel, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(listModelsURL + "?key=" + url.QueryEscape(key))
	if err != nil {
		return nil, errors.Wrap(err, "list models request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read list models response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("list models: http %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Models []listedModel `json:"models"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode list models response")
	}
	return parsed.Models, nil
}

func supportsGenerate(m listedModel) bool {
	for _, method := range m.SupportedMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

func pickModel(models []listedModel) (string, error) {
	available := make(map[string]bool, len(models))
	for _, m := range models {
		if supportsGenerate(m) {
			available[strings.TrimPrefix(m.Name, "models/")] = true
		}
	}
	for _, name := range preferred {
		if available[name] {
			return name, nil
		}
	}
	// ни одной предпочтительной — берём первую рабочую
	for _, m := range models {
		if supportsGenerate(m) {
			return strings.TrimPrefix(m.Name, "models/"), nil
		}
	}
	return "", errors.New("no model with generateContent support")
}

func writeConfig(path, model string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return errors.Wrap(err, "read config")
		}
	}
	viper.Set("classifier.model", model)

	bs, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return errors.Wrap(err, "marshal config to yaml")
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

func main() {
	key := os.Getenv("GEMINI_KEY")
	if key == "" {
		panic("GEMINI_KEY is not set")
	}

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "values_local.yaml"
	}
	path := "configs/" + configFile

	models, err := fetchModels(key)
	if err != nil {
		panic(fmt.Errorf("fetch models: %w", err))
	}

	model, err := pickModel(models)
	if err != nil {
		panic(fmt.Errorf("pick model: %w", err))
	}

	if err := writeConfig(path, model); err != nil {
		panic(fmt.Errorf("update %s: %w", path, err))
	}
	fmt.Printf("%s: classifier.model = %s\n", path, model)
}
