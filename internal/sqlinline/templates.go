package sqlinline

const QListTemplates = `--sql 6defec50-144d-4345-91a2-2bf32fca9751
select id, title, image_url, category, coalesce(event_type, ''), coalesce(canva_url, ''), is_premium, is_new, usage_count, coalesce(description, ''), created_at, updated_at
from templates
where ($1::text = '' or category = $1::text)
  and ($2::text = '' or event_type = $2::text)
  and ($3::text = '' or title ilike '%' || $3::text || '%')
order by
  case when $4::text = 'popular' then usage_count end desc nulls last,
  case when $4::text = 'new' then created_at end desc nulls last,
  created_at desc
limit $5::int offset $6::int;
`

const QSelectTemplateByID = `--sql 10292f6c-da49-4925-99d5-76d9a8ea08ff
select id, title, image_url, category, coalesce(event_type, ''), coalesce(canva_url, ''), is_premium, is_new, usage_count, coalesce(description, ''), created_at, updated_at
from templates
where id = $1::uuid
limit 1;
`

const QSelectCatalog = `--sql 6ccc2ba6-f3f1-405c-b932-c16735eb3f85
select id, title, image_url, category, coalesce(event_type, ''), coalesce(canva_url, ''), is_premium, is_new, usage_count
from templates;
`

const QIncrementTemplateUsage = `--sql 29e4c5cd-8f96-45f9-8118-8f0b2b78ad34
update templates set usage_count = usage_count + 1, updated_at = now()
where id = $1::uuid;
`

const QUpsertTemplate = `--sql ead61976-f205-4094-b2ee-09bc8f30d010
insert into templates (id, title, image_url, category, event_type, canva_url, is_premium, is_new, description, created_at, updated_at)
values (coalesce(nullif($1::text, '')::uuid, gen_random_uuid()), $2::text, $3::text, $4::text, nullif($5::text, ''), nullif($6::text, ''), $7::boolean, $8::boolean, nullif($9::text, ''), now(), now())
on conflict (id) do update set
    title = excluded.title,
    image_url = excluded.image_url,
    category = excluded.category,
    event_type = excluded.event_type,
    canva_url = excluded.canva_url,
    is_premium = excluded.is_premium,
    is_new = excluded.is_new,
    description = excluded.description,
    updated_at = now()
returning id;
`

const QDeleteTemplate = `--sql 7c100cd2-d5ba-4b86-8467-2f95ed686b6c
delete from templates where id = $1::uuid;
`
