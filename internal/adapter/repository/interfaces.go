package repository

import "github.com/johnquangdev/meeting-sync/internal/domain/repositories"

var (
	_ repositories.MeetingRepository       = (*MeetingRepository)(nil)
	_ repositories.ScheduledLinkRepository = (*ScheduledLinkRepository)(nil)
	_ repositories.DealRepository          = (*DealRepository)(nil)
	_ repositories.ArtifactRepository      = (*ArtifactRepository)(nil)
	_ repositories.SummaryRepository       = (*SummaryRepository)(nil)
	_ repositories.AnalysisJobRepository   = (*AnalysisJobRepository)(nil)
)
