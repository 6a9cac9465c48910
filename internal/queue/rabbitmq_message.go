package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// rabbitMessage binds a Job to its RabbitMQ delivery for ack/nack
type rabbitMessage struct {
	job         *Job
	deliveryTag uint64
	channel     *amqp.Channel
}

// Ack acknowledges the message
func (m *rabbitMessage) Ack() error {
	return m.channel.Ack(m.deliveryTag, false)
}

// Nack negatively acknowledges the message
func (m *rabbitMessage) Nack(requeue bool) error {
	return m.channel.Nack(m.deliveryTag, false, requeue)
}

// Job returns the wrapped job
func (m *rabbitMessage) Job() *Job {
	return m.job
}
