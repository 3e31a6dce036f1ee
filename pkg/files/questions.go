package files

import (
	"github.com/small-frappuccino/applygate/pkg/errutil"
	"github.com/small-frappuccino/applygate/pkg/log"
	"github.com/small-frappuccino/applygate/pkg/util"
)

// LoadQuestionSet reads the question file once at startup. The returned set is
// immutable; a missing file yields an empty set, which disables intake until
// questions are provided.
func LoadQuestionSet(path string) (*QuestionSet, error) {
	qs := &QuestionSet{}
	if err := util.NewJSONManager(path).Load(qs); err != nil {
		return nil, errutil.HandleConfigError("read", path, func() error { return err })
	}

	if qs.Len() == 0 {
		log.ApplicationLogger().Warn("Question set is empty; applications cannot be completed", "path", path)
	} else {
		log.ApplicationLogger().Info("Question set loaded", "path", path, "questions", qs.Len())
	}
	return qs, nil
}

// LoadDefaultQuestionSet loads questions from the default data directory path.
func LoadDefaultQuestionSet() (*QuestionSet, error) {
	return LoadQuestionSet(util.QuestionsFilePath())
}
