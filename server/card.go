// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package server

// AgentProvider describes the organization behind the agent.
type AgentProvider struct {
	// Organization is the provider's name.
	Organization string `json:"organization"`
	// URL is the provider's website.
	URL *string `json:"url,omitempty"`
}

// AgentCapabilities advertises the optional protocol features the agent
// supports. The server consumes Streaming and PushNotifications as
// capability gates.
type AgentCapabilities struct {
	// Streaming enables message/stream and tasks/resubscribe.
	Streaming *bool `json:"streaming,omitempty"`
	// PushNotifications enables the push notification config methods.
	PushNotifications *bool `json:"pushNotifications,omitempty"`
	// StateTransitionHistory indicates state history exposure.
	StateTransitionHistory *bool `json:"stateTransitionHistory,omitempty"`
}

// AgentSkill describes one capability unit the agent offers.
type AgentSkill struct {
	// ID identifies the skill.
	ID string `json:"id"`
	// Name is the human-readable skill name.
	Name string `json:"name"`
	// Description explains what the skill does.
	Description *string `json:"description,omitempty"`
	// Tags are search keywords.
	Tags []string `json:"tags,omitempty"`
	// Examples are sample invocations.
	Examples []string `json:"examples,omitempty"`
	// InputModes lists accepted input MIME types.
	InputModes []string `json:"inputModes,omitempty"`
	// OutputModes lists produced output MIME types.
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentCard is the self-description document served at the well-known
// paths.
type AgentCard struct {
	// Name is the agent's display name.
	Name string `json:"name"`
	// Description summarizes what the agent does.
	Description *string `json:"description,omitempty"`
	// URL is the base address clients reach the agent at.
	URL string `json:"url"`
	// Provider identifies the hosting organization.
	Provider *AgentProvider `json:"provider,omitempty"`
	// Version is the agent version string.
	Version string `json:"version"`
	// DocumentationURL points at agent documentation.
	DocumentationURL *string `json:"documentationUrl,omitempty"`
	// Capabilities advertises optional protocol features.
	Capabilities AgentCapabilities `json:"capabilities"`
	// DefaultInputModes lists the MIME types the agent accepts.
	DefaultInputModes []string `json:"defaultInputModes,omitempty"`
	// DefaultOutputModes lists the MIME types the agent produces.
	DefaultOutputModes []string `json:"defaultOutputModes,omitempty"`
	// Skills enumerates what the agent can do.
	Skills []AgentSkill `json:"skills,omitempty"`
	// SupportsAuthenticatedExtendedCard gates the extended card method.
	SupportsAuthenticatedExtendedCard *bool `json:"supportsAuthenticatedExtendedCard,omitempty"`
}

// StreamingEnabled reports whether the card advertises streaming.
func (c AgentCard) StreamingEnabled() bool {
	return c.Capabilities.Streaming != nil && *c.Capabilities.Streaming
}

// PushNotificationsEnabled reports whether the card advertises push
// notifications.
func (c AgentCard) PushNotificationsEnabled() bool {
	return c.Capabilities.PushNotifications != nil && *c.Capabilities.PushNotifications
}
