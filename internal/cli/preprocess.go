package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/joho/godotenv"
)

type TemplateContext struct {
	ENV map[string]string
}

var missingKeyRegex = regexp.MustCompile(`map has no entry for key "(.*?)"`)

// PreprocessYAML replaces {{ .ENV.VAR }} placeholders with values from the
// environment, falling back to a .env file in dir. An empty dir means the
// current working directory. The process environment is not modified.
func PreprocessYAML(inputRaw []byte, dir string) ([]byte, error) {
	envMap, err := templateEnv(dir)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("yaml").Option("missingkey=error").Parse(string(inputRaw))
	if err != nil {
		return nil, fmt.Errorf("template error: %w", err)
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, TemplateContext{ENV: envMap}); err != nil {
		matches := missingKeyRegex.FindStringSubmatch(err.Error())
		if len(matches) == 2 {
			return nil, fmt.Errorf("missing environment variable: %s (set it in your shell or .env file)", matches[1])
		}
		return nil, fmt.Errorf("template error: %w", err)
	}

	return output.Bytes(), nil
}

func templateEnv(dir string) (map[string]string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	}

	envMap := map[string]string{}
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		dotenv, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %w", envPath, err)
		}
		envMap = dotenv
	}

	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			envMap[k] = v
		}
	}
	return envMap, nil
}
