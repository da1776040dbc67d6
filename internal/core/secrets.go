package core

import (
	"bufio"
	"os"
	"strings"
)

// Secret keys read from secrets.env or the environment. Environment values win.
const (
	EnvProvisionerToken  = "QAF_PROVISIONER_TOKEN"
	EnvFarmHost          = "QAF_FARM_HOST"
	EnvS3AccessKeyID     = "QAF_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "QAF_S3_SECRET_ACCESS_KEY"
)

// LoadSecretsEnv reads KEY=VALUE pairs from path (defaults to secrets.env in
// the qaf config directory). Blank lines and lines starting with # are
// ignored, surrounding quotes are stripped. A missing file is not an error.
func LoadSecretsEnv(path string) (map[string]string, error) {
	if path == "" {
		path = configDir() + string(os.PathSeparator) + "secrets.env"
	}
	f, err := os.Open(path)
	if err != nil {
		return map[string]string{}, nil
	}
	defer f.Close()
	out := map[string]string{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.Trim(strings.TrimSpace(line[i+1:]), `"'`)
			out[k] = v
		}
	}
	return out, s.Err()
}
