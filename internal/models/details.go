package models

// DatasetInfo describes the training dataset
type DatasetInfo struct {
	TotalDatasetSize  int            `json:"total_dataset_size"`
	TrainingSetSize   int            `json:"training_set_size"`
	ValidationSetSize int            `json:"validation_set_size"`
	TestSetSize       int            `json:"test_set_size"`
	ClassDistribution map[string]int `json:"class_distribution"`
}

// TrainingConfig describes how the model was trained
type TrainingConfig struct {
	OptimizerType string  `json:"optimizer_type"`
	LearningRate  float64 `json:"learning_rate"`
	BatchSize     int     `json:"batch_size"`
	EpochsTrained int     `json:"epochs_trained"`
	CVFolds       int     `json:"cv_folds"`
	GRUHiddenSize int     `json:"gru_hidden_size"`
	GRUNumLayers  int     `json:"gru_num_layers"`
	DropoutRate   float64 `json:"dropout_rate"`
}

// PerformanceRequirements are the acceptance thresholds of the model
type PerformanceRequirements struct {
	MinRequiredAccuracy float64 `json:"min_required_accuracy"`
	MaxProcessingTime   float64 `json:"max_processing_time"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	TargetAccuracy      float64 `json:"target_accuracy"`
}

// ModelDetails is the payload of /api/model-info
type ModelDetails struct {
	ModelType                  string                  `json:"model_type"`
	ModelArchitecture          string                  `json:"model_architecture"`
	Backbone                   string                  `json:"backbone"`
	SequenceModel              string                  `json:"sequence_model"`
	TotalParameters            int64                   `json:"total_parameters"`
	TrainableParameters        int64                   `json:"trainable_parameters"`
	ModelSizeMB                float64                 `json:"model_size_mb"`
	InputImageSize             string                  `json:"input_image_size"`
	OutputClasses              int                     `json:"output_classes"`
	ClassNames                 []string                `json:"class_names"`
	Framework                  string                  `json:"framework"`
	Version                    string                  `json:"version"`
	Device                     string                  `json:"device"`
	DatasetInfo                DatasetInfo             `json:"dataset_info"`
	TrainingConfig             TrainingConfig          `json:"training_config"`
	PreprocessingSteps         []string                `json:"preprocessing_steps"`
	DataAugmentationTechniques []string                `json:"data_augmentation_techniques"`
	PerformanceRequirements    PerformanceRequirements `json:"performance_requirements"`
	LastUpdated                string                  `json:"last_updated,omitempty"`
	Status                     string                  `json:"status,omitempty"`
	HealthCheck                string                  `json:"health_check,omitempty"`
	DataSource                 string                  `json:"data_source,omitempty"`
}

// ClassMetrics are per-class evaluation scores
type ClassMetrics struct {
	ClassName string  `json:"class_name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// TrainingHistory holds per-epoch curves
type TrainingHistory struct {
	Loss          []float64 `json:"loss"`
	Accuracy      []float64 `json:"accuracy"`
	ValLoss       []float64 `json:"val_loss"`
	ValAccuracy   []float64 `json:"val_accuracy"`
	EpochsTrained int       `json:"epochs_trained"`
}

// ModelMetrics is the payload of /api/metrics
type ModelMetrics struct {
	OverallAccuracy     float64         `json:"overall_accuracy"`
	OverallPrecision    float64         `json:"overall_precision"`
	OverallRecall       float64         `json:"overall_recall"`
	OverallF1Score      float64         `json:"overall_f1_score"`
	ProcessingTime      float64         `json:"processing_time"`
	InferenceTime       float64         `json:"inference_time"`
	ModelAccuracy       float64         `json:"model_accuracy"`
	NumClasses          int             `json:"num_classes"`
	TotalSamples        int             `json:"total_samples"`
	ClassNames          []string        `json:"class_names"`
	ClassMetrics        []ClassMetrics  `json:"class_metrics"`
	ConfusionMatrixData [][]int         `json:"confusion_matrix_data"`
	TrainingHistory     TrainingHistory `json:"training_history"`
	CVScores            []float64       `json:"cv_scores"`
	MeanCVScore         float64         `json:"mean_cv_score"`
	CVStdDeviation      float64         `json:"cv_std_deviation"`
	ModelArchitecture   string          `json:"model_architecture"`
	ServiceStatus       string          `json:"service_status,omitempty"`
	RealTimeInference   bool            `json:"real_time_inference,omitempty"`
	Timestamp           string          `json:"timestamp,omitempty"`
	Status              string          `json:"status,omitempty"`
	DataSource          string          `json:"data_source,omitempty"`
}
