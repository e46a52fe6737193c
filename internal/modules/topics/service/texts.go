package service

import "fmt"

const (
	textNotGroup       = "⚠️ This command only works in groups."
	textNoThemes       = "⚠️ There are no topics to create. Add some with /add"
	textRunInProgress  = "⏳ Topic creation is already running in this chat."
	textCreating       = "Creating discussion topics..."
	textNotForum       = "⚠️ This group is not a forum. Enable topics in the group settings."
	textRenameFailed   = "⚠️ Could not rename the 'General' topic. It may not exist or the bot lacks rights."
	textForumHint      = "This group has discussion topics. Use /create to create topics from the template."
	textEnableTopics   = "⚠️ To use discussion topics this group must be a supergroup with topics enabled in its settings."
	textFallbackFriend = "friend"
)

func textProgress(created, total int) string {
	return fmt.Sprintf("%s (%d/%d)", textCreating, created, total)
}

func textFinished(created, total int) string {
	return fmt.Sprintf("✅ Topic creation finished! Created: %d/%d", created, total)
}

func textRenamed(name string) string {
	return fmt.Sprintf("✅ Topic 'General' renamed to '%s'", name)
}

func textTopicFailed(name string, err error) string {
	return fmt.Sprintf("⚠️ Error while creating topic %s: %v", name, err)
}

func textRunFailed(err error) string {
	return fmt.Sprintf("⚠️ An error occurred: %v", err)
}

func textGreeting(who string) string {
	return fmt.Sprintf("Hi %s, welcome to the group! Tell us about yourself and what you do! 👋", who)
}
