package core

// ClassifyIncoming decides what to do with a newly arrived message.
// Rules are evaluated in order; the first match wins:
//
//  1. sender address is explicitly allowed -> keep
//  2. sender domain is allowed -> keep
//  3. message is valid list mail -> move to the list destination
//  4. otherwise -> junk
//
// The function is total: every message yields exactly one decision.
func ClassifyIncoming(msg MessageView, rules *RuleContext) Decision {
	if _, ok := rules.AllowedAddresses[msg.FromAddress]; ok {
		return Keep()
	}
	if _, ok := rules.AllowedDomains[msg.FromDomain]; ok {
		return Keep()
	}
	if validListEmail(msg, rules) {
		return MoveTo(rules.ListFolderFor(msg.FromDomain))
	}
	return Junk()
}

// ClassifyForFiling decides where a message already in the mailbox
// belongs. Unlike incoming triage the default is to keep, not junk:
// filing and un-junking only act on positive matches.
//
//  1. sender has a known destination folder -> move there
//  2. sender domain is a mapped list domain -> move to the list destination
//  3. otherwise -> keep
func ClassifyForFiling(msg MessageView, rules *RuleContext) Decision {
	if folder, ok := rules.SenderFolders[msg.FromAddress]; ok {
		return MoveTo(folder)
	}
	if _, ok := rules.ListDomainFolders[msg.FromDomain]; ok {
		return MoveTo(rules.ListFolderFor(msg.FromDomain))
	}
	return Keep()
}

// validListEmail reports whether a message qualifies as legitimate
// mailing-list mail. A suspicious header disqualifies it outright;
// otherwise membership of the sender domain in the list registry is
// sufficient. Note that the Authentication-Results signal captured in
// MessageView.HasAuthHeader does not gate acceptance here; only the
// suspicious-header signal can block a registered list domain.
func validListEmail(msg MessageView, rules *RuleContext) bool {
	if msg.HasSuspiciousHeader {
		return false
	}
	_, ok := rules.ListDomains[msg.FromDomain]
	return ok
}
