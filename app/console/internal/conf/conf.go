package conf

type Bootstrap struct {
	Server *Server
	Data   *Data
	Review *Review
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type Data struct {
	Database *Database
}

// Database 运行历史存储，Source 为空时使用内存存储
type Database struct {
	Driver string
	Source string
}

// Review 评审任务相关配置，目录均相对 BaseDir
type Review struct {
	BaseDir     string       `json:"base_dir"`
	UploadRoot  string       `json:"upload_root"`
	RunRoot     string       `json:"run_root"`
	Llm         *LLM         `json:"llm"`
	PromptsDir  string       `json:"prompts_dir"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
}

type LLM struct {
	BaseUrl             string  `json:"base_url"`
	ApiKey              string  `json:"api_key"`
	Model               string  `json:"model"`
	AggregateModel      string  `json:"aggregate_model"`
	Temperature         float64 `json:"temperature"`
	MaxTokensIndividual int32   `json:"max_tokens_individual"`
	MaxTokensAggregate  int32   `json:"max_tokens_aggregate"`
}

type Log struct {
	Level string `json:"level"`
}

type Concurrency struct {
	Rpm int32 `json:"rpm"`
}
