package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
)

// TopicsFile is the declarative list of monitored topics.
type TopicsFile struct {
	Topics []model.Topic `mapstructure:"topics"`
}

// LoadTopics reads the topics file. Topics without an explicit
// horizon_days inherit the given default.
func LoadTopics(path string, defaultHorizonDays int) ([]model.Topic, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read topics file %s: %w", path, err)
	}

	var tf TopicsFile
	if err := v.Unmarshal(&tf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topics file: %w", err)
	}

	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("topics file %s defines no topics", path)
	}

	for i := range tf.Topics {
		t := &tf.Topics[i]
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("topic %d has no name", i)
		}
		if len(t.Channels) == 0 {
			return nil, fmt.Errorf("topic %q has no youtube_channels", t.Name)
		}
		if t.HorizonDays <= 0 {
			t.HorizonDays = defaultHorizonDays
		}
	}

	return tf.Topics, nil
}

// FindTopic returns the topic with the given name, case-insensitively.
func FindTopic(topics []model.Topic, name string) (model.Topic, bool) {
	for _, t := range topics {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return model.Topic{}, false
}
