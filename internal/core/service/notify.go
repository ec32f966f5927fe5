package service

// Notify is called with a collection name after a local mutation. It may be nil.
type Notify func(topic string)

func (n Notify) send(topic string) {
	if n != nil {
		n(topic)
	}
}
