package providers

type Config struct {
	Provisioning struct {
		MaxChunk            int     `yaml:"max_chunk" toml:"max_chunk"`
		ChunkTimeoutSeconds int     `yaml:"chunk_timeout_seconds" toml:"chunk_timeout_seconds"`
		RatePerSecond       float64 `yaml:"rate_per_second" toml:"rate_per_second"`
		OutputDir           string  `yaml:"output_dir" toml:"output_dir"`
		NamePrefix          string  `yaml:"name_prefix" toml:"name_prefix"`
		OutputFormat        string  `yaml:"output_format" toml:"output_format"`
	} `yaml:"provisioning" toml:"provisioning"`
	Backends struct {
		Default string `yaml:"default" toml:"default"`
		HTTP    struct {
			BaseURL        string `yaml:"base_url" toml:"base_url"`
			Token          string `yaml:"token" toml:"token"`
			TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
			Retries        int    `yaml:"retries" toml:"retries"`
		} `yaml:"http" toml:"http"`
		Script struct {
			Command string   `yaml:"command" toml:"command"`
			Args    []string `yaml:"args" toml:"args"`
			Env     []string `yaml:"env" toml:"env"`
			WorkDir string   `yaml:"work_dir" toml:"work_dir"`
		} `yaml:"script" toml:"script"`
	} `yaml:"backends" toml:"backends"`
	Fleet struct {
		FarmHost       string   `yaml:"farm_host" toml:"farm_host"`
		Command        string   `yaml:"command" toml:"command"`
		Args           []string `yaml:"args" toml:"args"`
		TimeoutSeconds int      `yaml:"timeout_seconds" toml:"timeout_seconds"`
		MinOnline      int      `yaml:"min_online" toml:"min_online"`
		ListenAddr     string   `yaml:"listen_addr" toml:"listen_addr"`
		SSH            struct {
			Enabled    bool   `yaml:"enabled" toml:"enabled"`
			User       string `yaml:"user" toml:"user"`
			Port       int    `yaml:"port" toml:"port"`
			KeyPath    string `yaml:"key_path" toml:"key_path"`
			KnownHosts string `yaml:"known_hosts" toml:"known_hosts"`
		} `yaml:"ssh" toml:"ssh"`
		TLS struct {
			CertFile string `yaml:"cert_file" toml:"cert_file"`
			KeyFile  string `yaml:"key_file" toml:"key_file"`
			ClientCA string `yaml:"client_ca" toml:"client_ca"`
		} `yaml:"tls" toml:"tls"`
	} `yaml:"fleet" toml:"fleet"`
	Archive struct {
		Driver string `yaml:"driver" toml:"driver"`
		S3     struct {
			Bucket          string `yaml:"bucket" toml:"bucket"`
			Region          string `yaml:"region" toml:"region"`
			Endpoint        string `yaml:"endpoint" toml:"endpoint"`
			Prefix          string `yaml:"prefix" toml:"prefix"`
			PathStyle       bool   `yaml:"path_style" toml:"path_style"`
			AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id"`
			SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key"`
		} `yaml:"s3" toml:"s3"`
		SFTP struct {
			Host       string `yaml:"host" toml:"host"`
			Port       int    `yaml:"port" toml:"port"`
			User       string `yaml:"user" toml:"user"`
			KeyPath    string `yaml:"key_path" toml:"key_path"`
			KnownHosts string `yaml:"known_hosts" toml:"known_hosts"`
			RemoteDir  string `yaml:"remote_dir" toml:"remote_dir"`
		} `yaml:"sftp" toml:"sftp"`
	} `yaml:"archive" toml:"archive"`
	Ledger struct {
		Path string `yaml:"path" toml:"path"`
	} `yaml:"ledger" toml:"ledger"`
}
