package sysfile

type YAMLSystem struct {
	Name      string      `yaml:"name"`
	Precision string      `yaml:"precision"`
	Rows      int64       `yaml:"rows"`
	Cols      int64       `yaml:"cols"`
	Diagonal  []float64   `yaml:"diagonal"`
	Entries   []YAMLEntry `yaml:"entries"`
	RHS       []float64   `yaml:"rhs"`
	Expect    []float64   `yaml:"expect"`
}

type YAMLEntry struct {
	Row   *int64   `yaml:"row"`
	Col   *int64   `yaml:"col"`
	Value *float64 `yaml:"value"`
}
