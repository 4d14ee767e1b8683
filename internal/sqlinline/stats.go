package sqlinline

const QStatsSummary = `--sql 704dc47f-8b02-4331-aa15-781545b23d40
select
  (select count(*) from users)                                                      as total_users,
  (select count(*) from users where plan = 'ultimate')                              as ultimate_users,
  (select count(*) from templates)                                                  as total_templates,
  (select count(*) from download_events where created_at::date = current_date)      as downloads_today,
  (select count(*) from download_events where created_at > now() - interval '24h')  as downloads_last24,
  (select count(*) from subscriptions where status = 'active')                      as active_subscriptions;
`

const QTopTemplates = `--sql 2c1f0a9e-6d34-47b1-9c58-8e1df27a6b31
select id, title, category, usage_count
from templates
order by usage_count desc, created_at desc
limit $1;
`
