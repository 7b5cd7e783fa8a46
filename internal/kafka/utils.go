package kafka

import "strings"

func (w *Watcher) isReadingTopic(topic string) bool {
	return strings.HasPrefix(topic, w.topicPrefix)
}
