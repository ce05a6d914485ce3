package types

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type ModelIDResponse struct {
	ModelID uint `json:"model_id"`
}

type FieldName struct {
	Name string `json:"name"`
}

type FieldsResponse struct {
	Parameter []FieldName `json:"parameter"`
	Metric    []FieldName `json:"metric"`
}

type ParamValue struct {
	ID    uint    `json:"id" gorm:"column:id"`
	Key   string  `json:"key" gorm:"column:key"`
	Value *string `json:"value" gorm:"column:value"`
}
